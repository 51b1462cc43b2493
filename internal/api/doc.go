// Package api hosts the HTTP server, middleware, and handlers for the
// scraper. Notable routes:
//   - GET / and /saved render the headline and saved-article pages.
//   - GET /scrape fetches the source listing and stores new articles.
//   - GET /articles, /articles/{id} and POST /articles/{save,delete}/{id}
//     serve and update articles as JSON.
//   - POST /notes/save/{id} and DELETE /notes/delete/{note_id}/{article_id}
//     manage notes.
//   - GET /healthz, /readyz and /metrics for health checks and Prometheus scraping.
package api

// Package cmd defines the newsscraper command line.
//
// Commands:
//   - serve: builds the application (store, fetcher, archive, publisher) and
//     serves the HTML pages and JSON routes until SIGINT/SIGTERM.
//   - scrape: runs one scrape of the source listing and prints the counts.
//   - migrate: applies the Postgres schema and exits.
//
// Configuration is read from the optional --config YAML file and from
// NEWS_* environment variables; PORT and DATABASE_URL / MONGODB_URI are also
// honored for the listen port and the store connection string.
package cmd

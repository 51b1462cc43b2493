// Package news defines the domain types shared by the scraper, the stores and
// the HTTP layer, along with the interfaces each subsystem implements.
package news

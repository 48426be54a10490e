// Package backend implements the game's view of its auth and storage service.
//
// Supabase talks to a hosted project over its REST endpoints. Memory keeps
// accounts and tables in process and is meant for local runs and tests.
// Both hand out a new client handle on every Connect.
package backend

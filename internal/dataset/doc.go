// Package dataset provides raw SCADA tables: a CSV loader for recorded
// readings and a seeded synthetic generator for demos and tests.
package dataset

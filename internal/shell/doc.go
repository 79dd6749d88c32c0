// Package shell is the interactive terminal front end. It triggers captures and
// record views, and renders status and records updates handed over by the
// capture worker.
package shell

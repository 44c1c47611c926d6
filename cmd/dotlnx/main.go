// Package main provides the dotlnx CLI: drop .lnx bundles into an
// Applications directory and the watcher reconciles them into menu entries
// and confinement profiles.
package main

func main() {
	Execute()
}

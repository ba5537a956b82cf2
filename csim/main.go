// Command csim replays valgrind memory traces against a set-associative LRU
// cache and reports hits, misses, and evictions.
package main

import "github.com/adkrueger/Cachelab/csim/cmd"

func main() {
	cmd.Execute()
}

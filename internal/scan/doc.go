// Package scan provides concurrent directory statistics collection.
//
// A single producer walks the tree with fastwalk and pushes every entry
// onto a shared Queue. A fixed pool of workers pops entries, classifies
// regular files by extension and merges them into a mutex-guarded Store.
// Once the walk ends the queue is closed, the workers drain it and exit,
// and Run returns a snapshot of the aggregate.
package scan

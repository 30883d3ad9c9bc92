// Package resource bounds what a matrix build may consume: memory reserved
// for in-flight batches, the number of batches computed at once, and the
// byte rate of commits to the matrix store.
//
// A nil *Controller imposes no limits.
package resource

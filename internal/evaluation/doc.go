// Package evaluation implements the eval stage.
//
// A Scorer produces the named sub-scores, which are averaged with equal
// weight and rounded to two decimals. When the total falls below the
// threshold a RegenSelector picks the shots to queue for regeneration. The
// default selector queues only the first shot; all_shots and none are also
// available and other ranking policies can be plugged in.
package evaluation

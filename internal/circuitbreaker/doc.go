// Package circuitbreaker guards the delegated status API.
//
// When the API itself keeps failing, every remaining link would pay a full
// timeout before falling back to a direct probe. The breaker stops calling
// the API after a run of failures and lets a call through again once the
// reset timeout has passed:
//
//   - CLOSED: the API is called normally
//   - OPEN: the API is skipped, links go straight to the fallback tier
//   - HALF-OPEN: the API is tried again; one failure reopens the breaker
//
// Usage:
//
//	cb := circuitbreaker.New(5, time.Minute)
//	if cb.Allow() {
//	    // call the API...
//	    if err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker

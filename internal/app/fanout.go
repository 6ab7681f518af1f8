package app

import "encoding/json"

// fanout queues payload for every recipient and returns the ones that could
// not take it. A failed recipient never stops delivery to the rest.
func fanout(recipients []*Client, payload json.RawMessage) []*Client {
	var failed []*Client
	for _, c := range recipients {
		if err := c.enqueue(payload); err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

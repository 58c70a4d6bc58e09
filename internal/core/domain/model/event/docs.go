// Package event defines what the workflow publishes once a transition has committed
// and how each event turns into user notifications.
package event

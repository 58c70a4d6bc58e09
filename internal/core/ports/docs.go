// Package ports declares the interfaces the application core needs from the outside
// world: order and audit persistence behind a unit of work, the event publisher that
// feeds notifications, the notification sink itself and the user directory.
package ports

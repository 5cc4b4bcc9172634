// SPDX-License-Identifier: Unlicense OR MIT

/*
Package app provides the event loop that drives gesture
recognition outside tests.

A Loop serializes everything that touches recognizers: incoming
pointer events are posted to it, and it doubles as the
timer.Scheduler of the recognizers, so settle windows expire on
the same goroutine. A typical use:

	loop := app.NewLoop(64)
	tap := &gesture.SingleTap{Timers: loop}
	tap.Listen(func(e event.Event) { ... })
	go loop.Run(ctx)
	loop.Post(func() { tap.Update(ev) })
*/
package app

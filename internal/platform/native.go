package platform

// NativeHost is a Host backed by a real windowing system. EventLoop blocks
// dispatching window system events until Quit is called.
type NativeHost interface {
	Host
	EventLoop()
	Quit()
	Disconnect()
}

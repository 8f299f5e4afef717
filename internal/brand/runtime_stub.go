//go:build !govips || !cgo

package brand

func Startup() error {
	return nil
}

func Shutdown() {}

func newEngine() (engine, error) {
	return imagingEngine{}, nil
}

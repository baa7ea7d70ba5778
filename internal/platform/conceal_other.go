//go:build !linux

package platform

const DefaultConcealMode = ConcealHide

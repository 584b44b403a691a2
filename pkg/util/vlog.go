// Package util contains small helpers shared by the support packages
package util

import (
	"log"
	"sync"
)

// VLog is a verbosity-gated logger. Each print checks the caller-supplied
// callback under lock, so verbosity can be toggled at runtime by another
// goroutine. A nil *VLog is valid and discards everything, letting call
// sites pass nil when they have no logger to offer.
type VLog struct {
	lock          *sync.Mutex
	isVerboseFunc func() bool
}

func NewVLog(lock *sync.Mutex, checkIfVerboseFunc func() bool) *VLog {
	return &VLog{
		lock:          lock,
		isVerboseFunc: checkIfVerboseFunc,
	}
}

func (v *VLog) isVerbose() bool {
	if v == nil || v.isVerboseFunc == nil {
		return false
	}
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.isVerboseFunc()
}

func (v *VLog) Println(x ...any) {
	if v.isVerbose() {
		log.Println(x...)
	}
}

func (v *VLog) Printf(format string, x ...any) {
	if v.isVerbose() {
		log.Printf(format, x...)
	}
}

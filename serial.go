// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package sds011

import (
	"sync"
	"time"

	"github.com/goburrow/serial"
	"go.uber.org/zap"
)

const (
	// serialTimeout covers the sensor's worst-case warm-up plus reply
	// latency in passive mode.
	serialTimeout     = 5 * time.Second
	serialIdleTimeout = 60 * time.Second
)

// serialPort holds the line configuration and the I/O controller.
// The port opens lazily on first use and closes itself again after
// IdleTimeout without traffic.
type serialPort struct {
	serial.Config
	Logger      *zap.SugaredLogger
	IdleTimeout time.Duration

	mu           sync.Mutex
	port         serial.Port
	lastActivity time.Time
	closeTimer   *time.Timer
}

func (p *serialPort) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connect()
}

// connect opens the port if it is not open. Caller must hold the mutex.
func (p *serialPort) connect() error {
	if p.port == nil {
		port, err := serial.Open(&p.Config)
		if err != nil {
			return err
		}
		p.port = port
	}
	return nil
}

func (p *serialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.close()
}

// close closes the port if it is open. Caller must hold the mutex.
func (p *serialPort) close() (err error) {
	if p.port != nil {
		err = p.port.Close()
		p.port = nil
	}
	return
}

func (p *serialPort) logf(format string, v ...interface{}) {
	if p.Logger != nil {
		p.Logger.Debugf(format, v...)
	}
}

func (p *serialPort) startCloseTimer() {
	if p.IdleTimeout <= 0 {
		return
	}
	if p.closeTimer == nil {
		p.closeTimer = time.AfterFunc(p.IdleTimeout, p.closeIdle)
	} else {
		p.closeTimer.Reset(p.IdleTimeout)
	}
}

// closeIdle closes the port when the last activity lies further back
// than IdleTimeout.
func (p *serialPort) closeIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.IdleTimeout <= 0 {
		return
	}
	if idle := time.Since(p.lastActivity); idle >= p.IdleTimeout {
		p.logf("sds011: closing port after %v idle", idle)
		_ = p.close()
	}
}

package transport

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultRetransmitInterval 重传间隔
	DefaultRetransmitInterval = 2 * time.Second

	// 最大发送次数，超过后认为对端不可达
	maxTransmitAttempts = 10
)

// ErrNotAcknowledged 重传次数用尽仍未收到确认
var ErrNotAcknowledged = errors.New("packet was not acknowledged")

// Pending 一个等待对端确认的出站报文。构造时立即发送第一次，
// 之后由定时器按固定间隔重传，确认和超时丢弃两种结局只会发生一个，
// 完成后到达的注册会立即以相同的结局回放
type Pending struct {
	mu        sync.Mutex
	transport Transport
	payload   []byte
	attempts  int
	completed bool
	dropped   bool
	closed    bool
	onAck     []func()
	onDrop    []func(error)
	ticker    *time.Ticker
	stop      chan struct{}
}

// Send 发送payload并启动重传定时器
func Send(t Transport, payload []byte, interval time.Duration) (*Pending, error) {
	p := &Pending{
		transport: t,
		payload:   payload,
		stop:      make(chan struct{}),
	}

	if err := t.Write(payload); err != nil {
		return nil, err
	}
	p.attempts = 1

	p.ticker = time.NewTicker(interval)
	go p.retransmitLoop()

	return p, nil
}

func (p *Pending) retransmitLoop() {
	for {
		select {
		case <-p.ticker.C:
			p.retransmit()
		case <-p.stop:
			return
		}
	}
}

func (p *Pending) retransmit() {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return
	}

	if p.attempts >= maxTransmitAttempts {
		p.dropped = true
		callbacks := p.onDrop
		p.disarmLocked()
		p.mu.Unlock()

		log.Debugf("packet dropped after %d attempts", maxTransmitAttempts)
		for _, f := range callbacks {
			f(ErrNotAcknowledged)
		}
		return
	}

	p.attempts++
	attempt := p.attempts
	p.mu.Unlock()

	log.Tracef("retransmit attempt %d", attempt)
	if err := p.transport.Write(p.payload); err != nil {
		log.Debugf("retransmit failed: %v", err)
	}
}

// Acknowledge 收到对端确认，停止重传并触发成功回调。
// 重复调用和丢弃后的调用都不产生任何效果
func (p *Pending) Acknowledge() {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return
	}
	callbacks := p.onAck
	p.disarmLocked()
	p.mu.Unlock()

	for _, f := range callbacks {
		f()
	}
}

// OnAcknowledge 注册确认回调，若已确认则立即触发
func (p *Pending) OnAcknowledge(f func()) {
	p.mu.Lock()
	if p.completed {
		acked := !p.dropped && !p.closed
		p.mu.Unlock()
		if acked {
			f()
		}
		return
	}
	p.onAck = append(p.onAck, f)
	p.mu.Unlock()
}

// OnDrop 注册丢弃回调，若已丢弃则立即触发
func (p *Pending) OnDrop(f func(error)) {
	p.mu.Lock()
	if p.completed {
		dropped := p.dropped
		p.mu.Unlock()
		if dropped {
			f(ErrNotAcknowledged)
		}
		return
	}
	p.onDrop = append(p.onDrop, f)
	p.mu.Unlock()
}

// Attempts 返回已发送的次数
func (p *Pending) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Close 外部销毁，停掉定时器但不触发任何回调
func (p *Pending) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed {
		return
	}
	p.closed = true
	p.disarmLocked()
}

// disarmLocked 进入终态并清理，调用方必须持有锁
func (p *Pending) disarmLocked() {
	p.completed = true
	p.onAck = nil
	p.onDrop = nil
	p.ticker.Stop()
	close(p.stop)
}

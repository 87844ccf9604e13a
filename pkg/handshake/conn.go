// Package handshake 实现客户端的握手状态机，
// 记录的编解码在layer包，密钥派生和记录保护复用pion的实现
package handshake

import (
	"bytes"
	"context"
	"crypto/rand"
	"sync"

	"github.com/pion/dtls/v2/pkg/protocol"
	"github.com/pion/dtls/v2/pkg/protocol/recordlayer"
	log "github.com/sirupsen/logrus"
	"github.com/yly97/dtlsc/pkg/layer"
	"github.com/yly97/dtlsc/pkg/transport"
)

// 首个数据保护代次，该代次之前的记录都是明文
const initialEpoch = 1

// Conn 一条正在握手的连接。入站datagram由HandleDatagram处理，
// 所有会话状态都由状态机自己修改，外部不直接访问
type Conn struct {
	mu        sync.Mutex
	transport transport.Transport
	config    *Config

	state           *sessionState
	epoch           uint16
	sequenceNumber  uint64 // 当前epoch内的记录序号
	messageSequence uint16 // 整个连接尝试内的握手消息序号

	// 按消息类型注册的一次性回调，触发前先从表中移除
	handlerID uint64
	handlers  map[layer.MessageType]map[uint64]func(layer.Message)

	fatal     chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func NewConn(t transport.Transport, config *Config) *Conn {
	return &Conn{
		transport: t,
		config:    config,
		state:     &sessionState{},
		epoch:     initialEpoch,
		handlers:  make(map[layer.MessageType]map[uint64]func(layer.Message)),
		fatal:     make(chan error, 1),
		closed:    make(chan struct{}),
	}
}

// Connect 发起一次握手，收到ServerHelloDone并发出最后一组记录后返回。
// 只有对端的致命Alert、连接关闭和ctx取消会导致失败，
// 其余异常消息都只记录日志然后丢弃
func (c *Conn) Connect(ctx context.Context) error {
	done := make(chan struct{})

	c.mu.Lock()
	if err := c.resetLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	id := c.registerOnceLocked(layer.TypeServerHelloDone, func(layer.Message) {
		close(done)
	})
	err := c.sendClientHelloLocked(false)
	c.mu.Unlock()
	if err != nil {
		c.removeHandler(layer.TypeServerHelloDone, id)
		return err
	}

	// 完成、失败、关闭和超时竞争，落败一方的注册要显式移除
	select {
	case <-done:
		return nil
	case err := <-c.fatal:
		c.removeHandler(layer.TypeServerHelloDone, id)
		return err
	case <-c.closed:
		c.removeHandler(layer.TypeServerHelloDone, id)
		return ErrClosed
	case <-ctx.Done():
		c.removeHandler(layer.TypeServerHelloDone, id)
		return ctx.Err()
	}
}

// Close 关闭连接并让等待中的Connect失败返回
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return c.transport.Close()
}

// State 返回状态机当前所处的状态
func (c *Conn) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.state
}

// resetLocked 整体替换会话状态并重置计数器
func (c *Conn) resetLocked() error {
	c.state = &sessionState{}
	if _, err := rand.Read(c.state.clientRandom[:]); err != nil {
		return err
	}
	c.epoch = initialEpoch
	c.sequenceNumber = 0
	c.messageSequence = 0
	return nil
}

// HandleDatagram 处理一个入站datagram，一个datagram可能携带多条记录
func (c *Conn) HandleDatagram(data []byte) {
	rawRecords, err := recordlayer.UnpackDatagram(data)
	if err != nil {
		log.Debugf("discarded broken datagram: %v", err)
		return
	}

	for _, raw := range rawRecords {
		c.handleRecord(raw)
	}
}

func (c *Conn) handleRecord(data []byte) {
	header := &layer.RecordHeader{}
	if err := header.Unmarshal(data); err != nil {
		log.Debugf("discarded broken record: %v", err)
		return
	}

	c.mu.Lock()
	if header.Epoch > initialEpoch {
		if c.state.cipherSuite == nil || !c.state.cipherSuite.IsInitialized() {
			c.mu.Unlock()
			log.Debugf("discarded encrypted record before key derivation")
			return
		}
		var err error
		if data, err = c.state.cipherSuite.Decrypt(data); err != nil {
			c.mu.Unlock()
			log.Debugf("decrypt failed: %v", err)
			return
		}
	}

	switch header.ContentType {
	case layer.DTLSTypeAlert:
		c.mu.Unlock()
		c.handleAlert(data[layer.RecordHeaderSize:])
	case layer.DTLSTypeHandshake:
		c.handleHandshakeRecordLocked(data[layer.RecordHeaderSize:])
		c.mu.Unlock()
	default:
		// 其它类型的记录在握手阶段直接忽略
		c.mu.Unlock()
	}
}

func (c *Conn) handleAlert(data []byte) {
	alert := &layer.Alert{}
	if err := alert.Unmarshal(data); err != nil {
		log.Debugf("discarded broken alert: %v", err)
		return
	}

	if alert.IsFatal() {
		log.Infof("received fatal alert: %s", alert.Description)
		c.fail(wrapAlertError(alert))
		return
	}
	log.Infof("received warning alert: %s", alert.Description)
}

// handleHandshakeRecordLocked 一条记录可以携带多条连续的握手消息，
// 依次取出分发直到字节耗尽
func (c *Conn) handleHandshakeRecordLocked(data []byte) {
	for len(data) > 0 {
		header := &layer.HandshakeHeader{}
		if err := header.Unmarshal(data); err != nil {
			log.Debugf("discarded broken handshake message: %v", err)
			return
		}

		end := layer.HandshakeHeaderSize + int(header.FragmentLength)
		if end > len(data) {
			log.Debugf("discarded truncated handshake message")
			return
		}

		c.handleFragmentLocked(header, data[layer.HandshakeHeaderSize:end])
		data = data[end:]
	}
}

func (c *Conn) handleFragmentLocked(header *layer.HandshakeHeader, body []byte) {
	var complete []byte
	if header.IsFullMessage() {
		complete = body
	} else if header.MessageType == layer.TypeCertificate {
		var done bool
		var err error
		if complete, done, err = c.reassembleLocked(header, body); err != nil {
			log.Debugf("dropped %s fragment: %v", header.MessageType, err)
			return
		} else if !done {
			return
		}
	} else {
		log.Debugf("dropped fragmented %s", header.MessageType)
		return
	}

	message, err := layer.NewMessage(header.MessageType)
	if err != nil {
		log.Debugf("dropped message: %v", err)
		return
	}
	if err := message.Unmarshal(complete); err != nil {
		log.Debugf("dropped malformed %s: %v", header.MessageType, err)
		return
	}

	c.handleMessageLocked(message)
}

// reassembleLocked 按偏移写入分片，不假定分片的到达顺序，
// 凑满声明的总长度后返回完整消息并清空缓冲
func (c *Conn) reassembleLocked(header *layer.HandshakeHeader, body []byte) ([]byte, bool, error) {
	if c.state.fragmentBuffer == nil {
		c.state.fragmentBuffer = make([]byte, header.MessageLength)
		c.state.fragmentReceived = 0
	}

	if int(header.FragmentOffset)+len(body) > len(c.state.fragmentBuffer) {
		return nil, false, errFragmentOutOfRange
	}
	copy(c.state.fragmentBuffer[header.FragmentOffset:], body)
	c.state.fragmentReceived += header.FragmentLength

	if c.state.fragmentReceived < header.MessageLength {
		return nil, false, nil
	}

	complete := c.state.fragmentBuffer
	c.state.clearReassembly()
	return complete, true, nil
}

func (c *Conn) handleMessageLocked(message layer.Message) {
	log.Tracef("handle %s in state %s", message.MessageType(), c.state.state)

	var err error
	switch m := message.(type) {
	case *layer.MessageHelloVerifyRequest:
		err = c.onHelloVerifyRequest(m)
	case *layer.MessageServerHello:
		err = c.onServerHello(m)
	case *layer.MessageCertificate:
		err = c.onCertificate(m)
	case *layer.MessageServerKeyExchange:
		err = c.onServerKeyExchange(m)
	case *layer.MessageServerHelloDone:
		err = c.onServerHelloDone(m)
	default:
		log.Debugf("ignored %s", message.MessageType())
		return
	}
	if err != nil {
		// 异常消息只丢弃，状态机原地等待下一条合法消息
		log.Debugf("dropped %s: %v", message.MessageType(), err)
		return
	}

	c.fireHandlersLocked(message)
}

// registerOnceLocked 注册一次性回调，返回的id用于提前移除
func (c *Conn) registerOnceLocked(typ layer.MessageType, f func(layer.Message)) uint64 {
	c.handlerID++
	id := c.handlerID
	if c.handlers[typ] == nil {
		c.handlers[typ] = make(map[uint64]func(layer.Message))
	}
	c.handlers[typ][id] = f
	return id
}

func (c *Conn) removeHandler(typ layer.MessageType, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers[typ], id)
}

// fireHandlersLocked 触发前先从表中移除，避免重入时的二次触发
func (c *Conn) fireHandlersLocked(message layer.Message) {
	set := c.handlers[message.MessageType()]
	for id, f := range set {
		delete(set, id)
		f(message)
	}
}

func (c *Conn) fail(err error) {
	select {
	case c.fatal <- err:
	default:
	}
}

// marshalRecord 序列化一条出站记录，发送时才分配记录序号和消息序号，
// 进入新epoch之后的记录用协商好的套件加密
func (c *Conn) marshalRecord(r *layer.Record) ([]byte, error) {
	if c.sequenceNumber > layer.MaxSequenceNumber {
		return nil, errSequenceNumberOverflow
	}
	r.Header.Epoch = c.epoch
	r.Header.SequenceNumber = c.sequenceNumber
	c.sequenceNumber++

	if hand, ok := r.Content.(*layer.Handshake); ok {
		hand.Header.MessageSequence = c.messageSequence
		c.messageSequence++
	}

	data, err := r.Marshal()
	if err != nil {
		return nil, err
	}

	if c.epoch > initialEpoch && c.state.cipherSuite != nil && c.state.cipherSuite.IsInitialized() {
		if data, err = c.state.cipherSuite.Encrypt(newPionRecord(r), data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// incrementEpoch 进入下一个保护代次，记录序号归零
func (c *Conn) incrementEpoch() {
	c.epoch++
	c.sequenceNumber = 0
}

func (c *Conn) writeRecords(records ...*layer.Record) error {
	var out bytes.Buffer
	for _, r := range records {
		data, err := c.marshalRecord(r)
		if err != nil {
			return err
		}
		out.Write(data)
	}
	return c.transport.Write(out.Bytes())
}

func newHandshakeRecord(msg layer.Message) *layer.Record {
	return &layer.Record{
		Header: layer.RecordHeader{
			Version: layer.Version1_2,
		},
		Content: &layer.Handshake{
			Message: msg,
		},
	}
}

func newChangeCipherSpecRecord() *layer.Record {
	return &layer.Record{
		Header: layer.RecordHeader{
			Version: layer.Version1_2,
		},
		Content: &layer.ChangeCipherSpec{},
	}
}

func newPionRecord(record *layer.Record) *recordlayer.RecordLayer {
	return &recordlayer.RecordLayer{
		Header: recordlayer.Header{
			ContentType:    protocol.ContentType(record.Header.ContentType),
			Version:        protocol.Version1_2,
			Epoch:          record.Header.Epoch,
			SequenceNumber: record.Header.SequenceNumber,
			ContentLen:     record.Header.ContentLength,
		},
	}
}

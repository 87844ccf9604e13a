// Package transport 封装底层不可靠报文通道和单包的确认重传
package transport

import (
	"context"
	"errors"
	"net"

	log "github.com/sirupsen/logrus"
)

const readBufferSize = 8192

var ErrTransportClosed = errors.New("transport closed")

// Transport 一条不可靠的报文通道，Write发送单个datagram
type Transport interface {
	Write([]byte) error
	Close() error
}

// Conn 基于net.Conn的Transport实现
type Conn struct {
	conn net.Conn
}

func Dial(network, address string) (*Conn, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}

// NewConn 包装一条已建立的连接，测试时可以传入内存管道
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

func (c *Conn) Write(data []byte) error {
	_, err := c.conn.Write(data)
	return err
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ReadLoop 循环读取datagram并交给handle处理，连接关闭或ctx取消时返回
func (c *Conn) ReadLoop(ctx context.Context, handle func([]byte)) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			log.Debugf("read loop exit: %v", err)
			return err
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		handle(data)
	}
}

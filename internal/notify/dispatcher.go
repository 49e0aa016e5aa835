package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Message 一条待发送的通知
type Message struct {
	Recipient string
	Subject   string
	HTMLBody  string
}

// Dispatcher 异步通知派发器
// 请求处理路径上只做入队，实际发送由后台worker串行执行，
// 队列满时丢弃并记日志，保证提交接口永不被邮件阻塞。
type Dispatcher struct {
	notifier Notifier
	logger   *zap.Logger
	queue    chan Message
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDispatcher 创建派发器并启动后台worker
func NewDispatcher(notifier Notifier, logger *zap.Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan Message, queueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		if err := d.notifier.Send(msg.Recipient, msg.Subject, msg.HTMLBody); err != nil {
			d.logger.Error("notification send failed",
				zap.String("recipient", msg.Recipient),
				zap.String("subject", msg.Subject),
				zap.Error(err))
			continue
		}
		d.logger.Info("notification sent",
			zap.String("recipient", msg.Recipient),
			zap.String("subject", msg.Subject))
	}
}

// Enqueue 非阻塞入队，队列满时丢弃该条通知
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("notification queue full, dropping message",
			zap.String("recipient", msg.Recipient),
			zap.String("subject", msg.Subject))
	}
}

// Stop 关闭队列并等待残留消息发送完毕
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

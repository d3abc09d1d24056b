package device

import (
	"github.com/ardnew/usbdcore/device/hal"
	"github.com/ardnew/usbdcore/pkg"
)

// zlpRequired reports whether an IN data stage that produced n of the
// requested bytes must be terminated with a zero-length packet: the host
// expects more data, but the last packet was full-sized and cannot
// signal the end of the stage.
func zlpRequired(n, requested, maxPacket int) bool {
	return n > 0 && n < requested && n%maxPacket == 0
}

// OneZLP returns a transfer feeder that emits a single zero-length
// packet and then ends the transfer.
func OneZLP() hal.NextTransferFunc {
	sent := false
	return func(next *hal.Transfer) bool {
		if sent {
			return false
		}
		sent = true
		next.Data = nil
		return true
	}
}

// descriptorFeedCursor tracks the aggregation of class descriptor blocks
// into a configuration descriptor streamed across transfer chunks.
//
// The cursor walks the class registry in registration order, copying
// each class's descriptor block into the staging buffer one chunk at a
// time. totalLeft is the number of descriptor bytes still owed to the
// host and never increases.
type descriptorFeedCursor struct {
	classIndex int    // registry index of the class being streamed, -1 when exhausted
	block      []byte // unsent remainder of the current class block
	totalLeft  int    // descriptor bytes still owed to the host
	firstBuf   []byte // staging buffer tail reserved for the first chunk
	offset     int    // bytes already in the first packet ahead of cursor content
	zlp        bool   // terminate the stream with a zero-length packet
}

// feedConfigDescriptor produces the next chunk of the configuration
// descriptor stream. It implements hal.NextTransferFunc.
func (c *Core) feedConfigDescriptor(next *hal.Transfer) bool {
	d := &c.feed

	if d.classIndex < 0 {
		if d.zlp {
			d.zlp = false
			next.Data = nil
			pkg.LogDebug(pkg.ComponentFeeder, "descriptor stream terminated with ZLP")
			return true
		}
		return false
	}
	if d.totalLeft == 0 {
		// The host asked for fewer bytes than the aggregate holds and
		// has received them all.
		return false
	}

	buf := c.setupBuf[:]
	offset := 0
	if d.firstBuf != nil {
		buf = d.firstBuf
		offset = d.offset
		d.firstBuf = nil
		d.offset = 0
	}

	size := 0
	txSize := len(buf)
	if d.totalLeft < txSize {
		txSize = d.totalLeft
	}
	maxPacket := c.hal.MaxPacketSize(hal.EPIn0)

	for txSize != 0 {
		if len(d.block) > 0 {
			n := txSize
			if len(d.block) < n {
				n = len(d.block)
			}
			copy(buf[size:], d.block[:n])
			d.block = d.block[n:]
			d.totalLeft -= n
			txSize -= n
			size += n
		}
		if len(d.block) == 0 {
			d.classIndex++
			if d.classIndex >= c.registry.Len() {
				d.classIndex = -1
				if (size+offset)%maxPacket != 0 {
					// The short packet already terminates the stream.
					d.zlp = false
					d.totalLeft = 0
				}
				break
			}
			d.block = c.registry.Class(d.classIndex).DescriptorBlock()
		}
	}

	next.Data = buf[:size]
	return true
}

// respondConfigurationDescriptor answers GET_DESCRIPTOR(CONFIGURATION):
// it stamps the aggregate length and interface count into the
// configuration record, advertises remote wakeup while the capability is
// registered, and arms the data stage, streaming class descriptor blocks
// through the feed cursor when the response does not fit the record
// itself.
func (c *Core) respondConfigurationDescriptor(setup *SetupPacket) error {
	total := ConfigurationDescriptorSize
	ifaces := 0
	for i := 0; i < c.registry.Len(); i++ {
		cls := c.registry.Class(i)
		total += len(cls.DescriptorBlock())
		ifaces += cls.InterfaceCount()
	}

	desc := c.configDesc
	desc.TotalLength = uint16(total)
	desc.NumInterfaces = uint8(ifaces)
	if c.wakeup.active() {
		desc.Attributes |= ConfigAttrRemoteWakeup
	}

	buf := c.setupBuf[:]
	n := desc.MarshalTo(buf)
	if n == 0 {
		return pkg.ErrBufferTooSmall
	}

	txSize := total
	if int(setup.Length) < txSize {
		txSize = int(setup.Length)
	}
	maxPacket := c.hal.MaxPacketSize(hal.EPIn0)

	c.feed = descriptorFeedCursor{
		classIndex: -1,
		zlp:        zlpRequired(txSize, int(setup.Length), maxPacket),
	}

	var first hal.Transfer
	if txSize > n {
		c.feed.classIndex = 0
		c.feed.block = c.registry.Class(0).DescriptorBlock()
		c.feed.totalLeft = txSize - n
		c.feed.firstBuf = buf[n:]
		c.feed.offset = n
		if !c.feedConfigDescriptor(&first) {
			return pkg.ErrInternal
		}
		first.Data = buf[:n+len(first.Data)]
	} else {
		first.Data = buf[:txSize]
	}

	pkg.LogDebug(pkg.ComponentFeeder, "streaming configuration descriptor",
		"total", total, "requested", setup.Length, "interfaces", ifaces)

	c.guard.Lock()
	defer c.guard.Unlock()
	if err := c.setupDataTransferLocked(hal.EPIn0, &first, c.feedConfigDescriptor); err != nil {
		return err
	}
	return c.setupDataHandlerSetLocked(hal.EPIn0, emptySetupDataHandler)
}

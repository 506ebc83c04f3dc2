package sx127x

func (d *Device) ReadRegister(reg Register) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readReg(reg)
}

func (d *Device) WriteRegister(reg Register, v byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeReg(reg, v)
}

// UpdateRegister writes (current & mask) | v back to reg. Bits outside
// mask must already be clear in v. If the read fails nothing is written.
func (d *Device) UpdateRegister(reg Register, mask, v byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateReg(reg, mask, v)
}

func (d *Device) readReg(reg Register) (byte, error) {
	in, err := d.bus.WriteRead([]byte{byte(reg) & addrMask}, 1)
	if err != nil {
		return 0, &BusError{Op: "read", Reg: reg, Err: err}
	}
	return in[0], nil
}

func (d *Device) writeReg(reg Register, v byte) error {
	if err := d.bus.Write([]byte{byte(reg) | writeFlag, v}); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (d *Device) updateReg(reg Register, mask, v byte) error {
	cur, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, (cur&mask)|v)
}

package sx127x

import "log/slog"

const (
	paBoost     byte = 0x80
	paDacNormal byte = 0x84
	paDacBoost  byte = 0x87
)

// SetTxPower sets the PA_BOOST output power, clamped to 2-20 dBm. Above
// 17 dBm the high power DAC is enabled.
func (d *Device) SetTxPower(dBm int) error {
	switch {
	case dBm < 2:
		dBm = 2
	case dBm > 20:
		dBm = 20
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dac, out := paDacNormal, byte(dBm-2)
	if dBm > 17 {
		dac, out = paDacBoost, byte(dBm-5)
	}
	if err := d.writeReg(RegPaDac, dac); err != nil {
		return err
	}
	if err := d.writeReg(RegPaConfig, paBoost|0x70|out); err != nil {
		return err
	}
	d.log.Debug("tx power", slog.Int("dBm", dBm))
	return nil
}

func (d *Device) SetLnaBoost(boost bool) error {
	var v byte
	if boost {
		v = 0x03
	}
	return d.UpdateRegister(RegLna, 0xfc, v)
}

// SetSyncWord sets the LoRa sync word. 0x12 is private networks, 0x34
// LoRaWAN.
func (d *Device) SetSyncWord(w byte) error {
	return d.WriteRegister(RegSyncWord, w)
}

package sx127x

import "fmt"

type Register byte

const (
	RegFifo               Register = 0x00
	RegOpMode             Register = 0x01
	RegFrfMsb             Register = 0x06
	RegFrfMid             Register = 0x07
	RegFrfLsb             Register = 0x08
	RegPaConfig           Register = 0x09
	RegLna                Register = 0x0c
	RegFifoAddrPtr        Register = 0x0d
	RegFifoTxBaseAddr     Register = 0x0e
	RegFifoRxBaseAddr     Register = 0x0f
	RegFifoRxCurrentAddr  Register = 0x10
	RegIrqFlagsMask       Register = 0x11
	RegIrqFlags           Register = 0x12
	RegRxNbBytes          Register = 0x13
	RegPktSnrValue        Register = 0x19
	RegPktRssiValue       Register = 0x1a
	RegModemConfig1       Register = 0x1d
	RegModemConfig2       Register = 0x1e
	RegSymbTimeoutLsb     Register = 0x1f
	RegPreambleMsb        Register = 0x20
	RegPreambleLsb        Register = 0x21
	RegPayloadLength      Register = 0x22
	RegModemConfig3       Register = 0x26
	RegDetectionOptimize  Register = 0x31
	RegDetectionThreshold Register = 0x37
	RegSyncWord           Register = 0x39
	RegDioMapping1        Register = 0x40
	RegVersion            Register = 0x42
	RegPaDac              Register = 0x4d
)

var registerNames = map[Register]string{
	RegFifo:               "Fifo",
	RegOpMode:             "OpMode",
	RegFrfMsb:             "FrfMsb",
	RegFrfMid:             "FrfMid",
	RegFrfLsb:             "FrfLsb",
	RegPaConfig:           "PaConfig",
	RegLna:                "Lna",
	RegFifoAddrPtr:        "FifoAddrPtr",
	RegFifoTxBaseAddr:     "FifoTxBaseAddr",
	RegFifoRxBaseAddr:     "FifoRxBaseAddr",
	RegFifoRxCurrentAddr:  "FifoRxCurrentAddr",
	RegIrqFlagsMask:       "IrqFlagsMask",
	RegIrqFlags:           "IrqFlags",
	RegRxNbBytes:          "RxNbBytes",
	RegPktSnrValue:        "PktSnrValue",
	RegPktRssiValue:       "PktRssiValue",
	RegModemConfig1:       "ModemConfig1",
	RegModemConfig2:       "ModemConfig2",
	RegSymbTimeoutLsb:     "SymbTimeoutLsb",
	RegPreambleMsb:        "PreambleMsb",
	RegPreambleLsb:        "PreambleLsb",
	RegPayloadLength:      "PayloadLength",
	RegModemConfig3:       "ModemConfig3",
	RegDetectionOptimize:  "DetectionOptimize",
	RegDetectionThreshold: "DetectionThreshold",
	RegSyncWord:           "SyncWord",
	RegDioMapping1:        "DioMapping1",
	RegVersion:            "Version",
	RegPaDac:              "PaDac",
}

func (r Register) String() string {
	if n, ok := registerNames[r]; ok {
		return n
	}
	return fmt.Sprintf("Reg(%#02x)", byte(r))
}

const (
	// writeFlag is ORed into the address byte of every write transaction.
	writeFlag byte = 0x80
	addrMask  byte = 0x7f

	ChipVersion byte = 0x12

	RfMidBandThreshold uint32 = 525e6
	RssiOffsetHfPort   int    = 157
	RssiOffsetLfPort   int    = 164
	MaxPktLength       int    = 255
)

// Package pinout describes how the 140 way expansion connector of the processor module is
// wired on the mirror control board.
//
// Connector pins are numbered 1..140 (70 per board-to-board connector). GPIO numbers are the
// processor's logical line numbers, 0..191, grouped in six banks of 32.
package pinout

const (
	NumConnectorPins = 140
	NumGPIO          = 192
	LinesPerBank     = 32
	NumBanks         = NumGPIO / LinesPerBank

	nc = -1 // power, ground, analog or USB; not a GPIO
)

// connector maps a connector pin (index) to its GPIO number. Index 0 is unused.
var connector = [NumConnectorPins + 1]int16{
	0: nc,

	// J1
	1:  nc,  // GND
	2:  nc,  // VSYSTEM
	3:  186, // SYS_CLKOUT2
	4:  144, // UART2_CTS
	5:  145, // UART2_RTS
	6:  146, // UART2_TX
	7:  147, // UART2_RX
	8:  nc,  // GND
	9:  184, // I2C3_SCL
	10: 185, // I2C3_SDA
	11: 168, // I2C2_SCL
	12: 183, // I2C2_SDA
	13: 140, // MCBSP3_DX
	14: 141, // MCBSP3_DR
	15: 142, // MCBSP3_CLKX
	16: 143, // MCBSP3_FSX
	17: 148, // UART1_TX
	18: 151, // UART1_RX
	19: 166, // UART3_TX (console)
	20: 165, // UART3_RX (console)
	21: nc,  // GND
	22: nc,  // ADCIN2
	23: nc,  // ADCIN3
	24: nc,  // ADCIN4
	25: nc,  // ADCIN5
	26: nc,  // ADCIN6
	27: nc,  // ADCIN7
	28: nc,  // GND
	29: 170, // HDQ_SIO
	30: 55,  // GPMC_nCS4
	31: 56,  // GPMC_nCS5
	32: 57,  // GPMC_nCS6
	33: 65,  // GPMC_WAIT3
	34: nc,  // USBOTG_ID
	35: nc,  // USBOTG_DM
	36: nc,  // USBOTG_DP
	37: nc,  // USBOTG_VBUS
	38: nc,  // GND
	39: 14,  // ETK_D0
	40: 15,  // ETK_D1
	41: 16,  // ETK_D2
	42: 17,  // ETK_D3
	43: 18,  // ETK_D4
	44: 19,  // ETK_D5
	45: 20,  // ETK_D6
	46: 21,  // ETK_D7
	47: 22,  // ETK_D8
	48: 23,  // ETK_D9
	49: 12,  // ETK_CLK
	50: 13,  // ETK_CTL
	51: nc,  // GND
	52: 130, // MMC2_CLK
	53: 131, // MMC2_CMD
	54: 132, // MMC2_DAT0
	55: 133, // MMC2_DAT1
	56: 134, // MMC2_DAT2
	57: 135, // MMC2_DAT3
	58: 136, // MMC2_DAT4
	59: 137, // MMC2_DAT5
	60: 138, // MMC2_DAT6
	61: 139, // MMC2_DAT7
	62: nc,  // GND
	63: 171, // MCSPI1_CLK
	64: 172, // MCSPI1_SIMO
	65: 173, // MCSPI1_SOMI
	66: 174, // MCSPI1_CS0
	67: 175, // MCSPI1_CS1
	68: nc,  // V_BACKUP
	69: nc,  // VDD_3V3
	70: nc,  // GND

	// J4
	71:  nc,  // GND
	72:  nc,  // VDD_1V8
	73:  99,  // CAM_D0
	74:  100, // CAM_D1
	75:  101, // CAM_D2
	76:  102, // CAM_D3
	77:  103, // CAM_D4
	78:  104, // CAM_D5
	79:  105, // CAM_D6
	80:  106, // CAM_D7
	81:  107, // CAM_D8
	82:  108, // CAM_D9
	83:  109, // CAM_D10
	84:  110, // CAM_D11
	85:  94,  // CAM_HS
	86:  95,  // CAM_VS
	87:  96,  // CAM_XCLKA
	88:  97,  // CAM_PCLK
	89:  98,  // CAM_FLD
	90:  111, // CAM_XCLKB
	91:  167, // CAM_WEN
	92:  126, // CAM_STROBE
	93:  nc,  // GND
	94:  156, // MCBSP1_CLKR
	95:  162, // MCBSP1_CLKX
	96:  159, // MCBSP1_DR
	97:  158, // MCBSP1_DX
	98:  157, // MCBSP1_FSR
	99:  161, // MCBSP1_FSX
	100: 160, // MCBSP_CLKS
	101: nc,  // GND
	102: nc,  // USBH_DP
	103: nc,  // USBH_DM
	104: nc,  // GND
	105: 34,  // GPMC_A1
	106: 35,  // GPMC_A2
	107: 36,  // GPMC_A3
	108: 37,  // GPMC_A4
	109: 38,  // GPMC_A5
	110: 39,  // GPMC_A6
	111: 40,  // GPMC_A7
	112: 41,  // GPMC_A8
	113: 42,  // GPMC_A9
	114: 43,  // GPMC_A10
	115: 60,  // GPMC_nBE0_CLE
	116: 61,  // GPMC_nBE1
	117: 62,  // GPMC_nWP
	118: 64,  // GPMC_WAIT2
	119: nc,  // GND
	120: 88,  // DSS_D18
	121: 89,  // DSS_D19
	122: 90,  // DSS_D20
	123: 91,  // DSS_D21
	124: 92,  // DSS_D22
	125: 93,  // DSS_D23
	126: 66,  // DSS_PCLK
	127: 67,  // DSS_HSYNC
	128: 68,  // DSS_VSYNC
	129: 69,  // DSS_ACBIAS
	130: nc,  // GND
	131: 10,  // SYS_CLKOUT1
	132: 114, // CSI2_DX1
	133: 115, // CSI2_DY1
	134: 176, // MCSPI2_CS1
	135: nc,  // nRESET_PWRON
	136: nc,  // SYS_nRESWARM
	137: 127, // SIM_IO
	138: 128, // SIM_CLK
	139: 129, // SIM_PWRCTRL
	140: nc,  // GND
}

// ConnectorToGPIO returns the GPIO wired to connector pin. Pins outside 1..140 and pins carrying
// power, ground, analog or USB signals report ok == false.
func ConnectorToGPIO(pin int) (gpio int, ok bool) {
	if pin < 1 || pin > NumConnectorPins {
		return 0, false
	}
	g := connector[pin]
	if g == nc {
		return 0, false
	}
	return int(g), true
}

// Bank returns the register bank holding gpio.
func Bank(gpio int) int {
	return gpio / LinesPerBank
}

// Bit returns the position of gpio inside its bank.
func Bit(gpio int) uint {
	return uint(gpio % LinesPerBank)
}

// ValidGPIO reports whether gpio names a line of one of the six banks.
func ValidGPIO(gpio int) bool {
	return gpio >= 0 && gpio < NumGPIO
}

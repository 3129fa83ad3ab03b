package onboard

import (
	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/CodedInternet/mirrorctl/onboard/board"
	"github.com/CodedInternet/mirrorctl/onboard/control"
	"github.com/CodedInternet/mirrorctl/onboard/gpio"
	"github.com/CodedInternet/mirrorctl/onboard/pinout"
	"github.com/CodedInternet/mirrorctl/onboard/spi"
)

// Hardware owns the register mappings and the bus handle. There is one per process, built at
// startup and closed at shutdown.
type Hardware struct {
	GPIO *gpio.Controller
	SPI  spi.Transport

	closeSPI func() error
	log      logr.Logger
}

// OpenHardware maps the GPIO banks, applies the default line directions and opens the ADC
// bus. Any failure is an InitFault or ConfigFault and the process cannot continue.
func OpenHardware(config BoardConfig, log logr.Logger) (hw *Hardware, err error) {
	ctrl, err := gpio.Open(config.GPIO.Device, log)
	if err != nil {
		return
	}
	releaseLines(ctrl)
	outputs, inputs := ctrl.ConfigureAll()

	dev, err := spi.Open(config.SPI, log)
	if err != nil {
		ctrl.Close()
		return nil, err
	}

	log.Info("hardware ready", "outputs", outputs, "inputs", inputs)
	return &Hardware{GPIO: ctrl, SPI: dev, closeSPI: dev.Close, log: log}, nil
}

// releaseLines latches the off level of every active low output, so lines come up released
// when their direction is switched to output.
func releaseLines(g board.GPIO) {
	for _, line := range pinout.IdleHighLines() {
		g.WriteLevel(line, true)
	}
}

// NewBoard builds the orchestrator on this hardware.
func (hw *Hardware) NewBoard(config BoardConfig) *board.Board {
	return board.New(hw.GPIO, hw.SPI, hw.log.WithName("board"), config.Board())
}

// NewDispatcher builds a board and the serialising boundary around it.
func (hw *Hardware) NewDispatcher(config BoardConfig) *control.Dispatcher {
	return control.New(hw.NewBoard(config), hw.log.WithName("control"), config.Control())
}

func (hw *Hardware) Close() (err error) {
	if hw.closeSPI != nil {
		err = multierr.Append(err, hw.closeSPI())
	}
	err = multierr.Append(err, hw.GPIO.Close())
	hw.log.Info("hardware released", "error", err)
	return
}

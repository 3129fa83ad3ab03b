package onboard

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/Masterminds/semver"
	"gopkg.in/yaml.v2"

	"github.com/CodedInternet/mirrorctl/onboard/board"
	"github.com/CodedInternet/mirrorctl/onboard/control"
	"github.com/CodedInternet/mirrorctl/onboard/gpio"
	"github.com/CodedInternet/mirrorctl/onboard/spi"
)

// BOARD_REVISION is the range of board revisions this build knows the wiring of.
const BOARD_REVISION = "~1.2"

type BoardConfig struct {
	Version  int    `yaml:"version"`
	Revision string `yaml:"revision"`

	GPIO struct {
		Device string `yaml:"device"`
	} `yaml:"gpio"`

	SPI spi.Config `yaml:"spi"`

	ADC struct {
		FullScale float64 `yaml:"full_scale"`
		Samples   int     `yaml:"samples"`
		SettleUS  int     `yaml:"settle_us"`
	} `yaml:"adc"`

	Motion struct {
		MaxStepHz    float64 `yaml:"max_step_hz"`
		PhaseResetHz float64 `yaml:"phase_reset_hz"`
	} `yaml:"motion"`
}

func ParseConfig(data []byte) (config BoardConfig, err error) {
	if err = yaml.Unmarshal(data, &config); err != nil {
		return
	}

	switch config.Version {
	case 1:
		err = checkRevision(config.Revision)
	default:
		err = fmt.Errorf("unable to work with version %d", config.Version)
	}
	if err != nil {
		return
	}

	if config.GPIO.Device == "" {
		config.GPIO.Device = gpio.DefaultDevice
	}
	config.SPI = config.SPI.WithDefaults()
	return
}

func LoadConfig(filename string) (config BoardConfig, err error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("unable to read board config: %w", err)
	}
	return ParseConfig(data)
}

func checkRevision(revision string) error {
	semVer, err := semver.NewVersion(revision)
	if err != nil {
		return fmt.Errorf("unable to parse board revision %q: %w", revision, err)
	}

	semVerConstraint, err := semver.NewConstraint(BOARD_REVISION)
	if err != nil {
		return err
	}

	if !semVerConstraint.Check(semVer) {
		return fmt.Errorf("unable to use board revision %s - require %s", revision, BOARD_REVISION)
	}
	return nil
}

func (c BoardConfig) Board() board.Config {
	return board.Config{
		FullScale:    c.ADC.FullScale,
		PhaseResetHz: c.Motion.PhaseResetHz,
	}.WithDefaults()
}

// Control converts the measurement and motion settings. A zero settle time means the default.
func (c BoardConfig) Control() control.Config {
	settle := control.DefaultSettle
	if c.ADC.SettleUS > 0 {
		settle = time.Duration(c.ADC.SettleUS) * time.Microsecond
	}
	return control.Config{
		Samples:   c.ADC.Samples,
		Settle:    settle,
		MaxStepHz: c.Motion.MaxStepHz,
	}.WithDefaults()
}

package onboard

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/CodedInternet/motorlink/onboard/hardware"
	"github.com/CodedInternet/motorlink/onboard/seriallink"
	"github.com/Masterminds/semver"
	"gopkg.in/yaml.v2"
)

const (
	CONFIG_VERSION = "1.0.0"
	// config files this build understands
	CONFIG_CONSTRAINT = "~1"
)

type MotorConfig struct {
	Version string `yaml:"version"`
	Serial  struct {
		Port    string        `yaml:"port"`
		Baud    int           `yaml:"baud"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"serial"`
	Sender struct {
		Period time.Duration `yaml:"period"`
	} `yaml:"sender"`
	Motors struct {
		PairSpeed int `yaml:"pair_speed"`
		M3Speed   int `yaml:"m3_speed"`
		SpeedDiff int `yaml:"speed_diff"`
	} `yaml:"motors"`
}

func DefaultConfig() *MotorConfig {
	config := new(MotorConfig)
	config.Version = CONFIG_VERSION
	config.Serial.Baud = seriallink.BAUD_RATE
	config.Serial.Timeout = seriallink.READ_TIMEOUT
	config.Sender.Period = SEND_PERIOD
	config.Motors.PairSpeed = hardware.DEFAULT_SPEED
	config.Motors.M3Speed = hardware.DEFAULT_SPEED
	config.Motors.SpeedDiff = hardware.DEFAULT_DIFF
	return config
}

// LoadConfig reads a YAML config over the defaults. A missing file yields
// the defaults.
func LoadConfig(filename string) (config *MotorConfig, err error) {
	config = DefaultConfig()

	yamlFile, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read yaml file: %v", err)
	}

	if err = ParseConfig(yamlFile, config); err != nil {
		return nil, err
	}
	return config, nil
}

func ParseConfig(raw []byte, config *MotorConfig) error {
	if err := yaml.Unmarshal(raw, config); err != nil {
		return fmt.Errorf("unable to unmarshal yaml: %v", err)
	}
	return config.Validate()
}

func (c *MotorConfig) CheckVersion() error {
	version, err := semver.NewVersion(c.Version)
	if err != nil {
		return fmt.Errorf("config version %q is not a semantic version: %v", c.Version, err)
	}

	constraint, err := semver.NewConstraint(CONFIG_CONSTRAINT)
	if err != nil {
		return err
	}

	if !constraint.Check(version) {
		return fmt.Errorf("unable to use config version %s - require %s", c.Version, CONFIG_CONSTRAINT)
	}
	return nil
}

func (c *MotorConfig) Validate() error {
	if err := c.CheckVersion(); err != nil {
		return err
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Serial.Timeout <= 0 {
		return fmt.Errorf("serial timeout must be positive, got %s", c.Serial.Timeout)
	}
	if c.Sender.Period <= 0 {
		return fmt.Errorf("sender period must be positive, got %s", c.Sender.Period)
	}

	_, err := c.MotorState()
	return err
}

// MotorState builds the initial motor state described by the config.
func (c *MotorConfig) MotorState() (*hardware.MotorState, error) {
	m := hardware.NewMotorState()
	if err := m.SetPairSpeed(c.Motors.PairSpeed); err != nil {
		return nil, err
	}
	if err := m.SetM3Speed(c.Motors.M3Speed); err != nil {
		return nil, err
	}
	if err := m.SetSpeedDiff(c.Motors.SpeedDiff); err != nil {
		return nil, err
	}
	return m, nil
}

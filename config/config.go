package config

import (
	"fmt"
	"runtime"
	"strings"

	prefixed "github.com/matterbridge/logrus-prefixed-formatter"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Settings struct {
	Debug    bool             `mapstructure:"debug"`
	Trace    bool             `mapstructure:"trace"`
	MeetMe   MeetMeSettings   `mapstructure:"meetme"`
	Channels ChannelsSettings `mapstructure:"channels"`
	Journal  JournalSettings  `mapstructure:"journal"`
}

type MeetMeSettings struct {
	ListCommand string `mapstructure:"listcommand"`
}

type ChannelsSettings struct {
	HungupCache int `mapstructure:"hungupcache"`
}

type JournalSettings struct {
	// Path of the bolt database, empty disables the journal.
	Path string `mapstructure:"path"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("trace", false)
	v.SetDefault("meetme.listcommand", "meetme list")
	v.SetDefault("channels.hungupcache", 100)
	v.SetDefault("journal.path", "")
}

// LoadConfig reads cfgfile, if any, and the MEETMEBRIDGE_ environment.
func LoadConfig(cfgfile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("meetmebridge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	// use environment variables
	v.AutomaticEnv()

	if cfgfile == "" {
		return v, nil
	}

	v.SetConfigFile(cfgfile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", cfgfile, err)
	}

	// reload config on file changes
	if runtime.GOOS != "illumos" {
		v.WatchConfig()
	}

	return v, nil
}

func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("meetmebridge", pflag.ContinueOnError)
	fs.String("conf", "", "config file")
	fs.Bool("debug", false, "enable debug logging")
	fs.Bool("trace", false, "enable trace logging")
	fs.String("listcommand", "meetme list", "command used to list the members of a room")
	fs.String("journal", "", "path of the participant journal, empty disables it")
	return fs
}

// BindFlags makes flags that were set on the command line override v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range map[string]string{
		"debug":              "debug",
		"trace":              "trace",
		"meetme.listcommand": "listcommand",
		"journal.path":       "journal",
	} {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func Decode(v *viper.Viper) (*Settings, error) {
	s := &Settings{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           s,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}

	return s, nil
}

// NewLogger returns a logger for component prefix at the level s asks for.
func NewLogger(s *Settings, prefix string) *logrus.Entry {
	ourlog := logrus.New()
	ourlog.SetFormatter(&prefixed.TextFormatter{
		PrefixPadding: 13,
		FullTimestamp: true,
	})

	if s.Debug {
		ourlog.SetLevel(logrus.DebugLevel)
	}

	if s.Trace {
		ourlog.SetLevel(logrus.TraceLevel)
	}

	return ourlog.WithFields(logrus.Fields{"prefix": prefix})
}

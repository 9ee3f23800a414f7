package settings

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable read through viper, so the
// "home" flag is also ARCANE_HOME.
const EnvPrefix = "ARCANE"

// LogLevelKey has no flag; it is only read from ARCANE_LOG_LEVEL.
const LogLevelKey = "log-level"

// ForceUpdateCheckKey has no flag; it is only read from
// ARCANE_FORCE_UPDATE_CHECK.
const ForceUpdateCheckKey = "force-update-check"

type Flag struct {
	Name  string
	Short string
}

type flagNames struct {
	Verbose      Flag
	CliEnvFile   Flag
	Home         Flag
	Registry     Flag
	TemplatePath Flag
	LockCache    Flag
	LockTimeout  Flag
	Node         Flag
	NoUpdate     Flag

	Section  Flag
	Name     Flag
	Template Flag
	File     Flag
	Line     Flag
	Force    Flag
	Type     Flag

	ProjectVersion Flag

	Tag         Flag
	DisplayName Flag
	TargetPath  Flag
	Ignore      Flag
	Description Flag
}

var Flags = flagNames{
	Verbose:      Flag{"verbose", "v"},
	CliEnvFile:   Flag{"env", "e"},
	Home:         Flag{"home", ""},
	Registry:     Flag{"registry", "r"},
	TemplatePath: Flag{"template-path", "t"},
	LockCache:    Flag{"lock-cache", ""},
	LockTimeout:  Flag{"lock-timeout", ""},
	Node:         Flag{"node", ""},
	NoUpdate:     Flag{"no-update-check", ""},

	Section:  Flag{"section", "s"},
	Name:     Flag{"name", "n"},
	Template: Flag{"template", ""},
	File:     Flag{"file", "f"},
	Line:     Flag{"line", "l"},
	Force:    Flag{"force", ""},
	Type:     Flag{"type", ""},

	ProjectVersion: Flag{"project-version", ""},

	Tag:         Flag{"tag", ""},
	DisplayName: Flag{"display-name", ""},
	TargetPath:  Flag{"target-path", ""},
	Ignore:      Flag{"ignore", ""},
	Description: Flag{"description", ""},
}

// BindEnv makes v fall back to ARCANE_* environment variables for every key,
// with dashes in flag names read as underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/fixtures"
)

// attendanceFile is the layout of the defaults file.
type attendanceFile struct {
	Attendance company.Settings `yaml:"attendance"`
}

// LoadAttendanceDefaults reads the global attendance settings layer. An empty
// path yields the built-in defaults. Fields missing from the file keep their
// built-in value, and ${VAR} placeholders are replaced from the environment.
func LoadAttendanceDefaults(path string) (company.Settings, error) {
	if path == "" {
		return fixtures.DefaultAttendanceSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return company.Settings{}, fmt.Errorf("error reading attendance defaults: %w", err)
	}

	return ParseAttendanceDefaults(data)
}

// ParseAttendanceDefaults decodes a defaults document on top of the built-in defaults.
func ParseAttendanceDefaults(data []byte) (company.Settings, error) {
	content := expandEnv(string(data))

	file := attendanceFile{Attendance: fixtures.DefaultAttendanceSettings()}
	if err := yaml.Unmarshal([]byte(content), &file); err != nil {
		return company.Settings{}, fmt.Errorf("error parsing attendance defaults: %w", err)
	}

	if err := file.Attendance.Validate(); err != nil {
		return company.Settings{}, fmt.Errorf("%w: %w", company.ErrInvalidSettings, err)
	}
	return file.Attendance, nil
}

// expandEnv replaces ${VAR} placeholders with environment values. Unknown
// placeholders are left as written.
func expandEnv(content string) string {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		placeholder := "${" + pair[0] + "}"
		content = strings.ReplaceAll(content, placeholder, pair[1])
	}
	return content
}

package satdump

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/palydovai/stotis/internal/config"
)

func TestAliasTable(t *testing.T) {
	cases := []struct {
		name  string
		want  string
		known bool
	}{
		{"NOAA 15", "NOAA-15", true},
		{"NOAA 18", "NOAA-18", true},
		{"NOAA 19", "NOAA-19", true},
		{"ISS (ZARYA)", "ISS", true},
		{"METEOR-M 2-3", "METEOR-M 2-3", true},
		{"UNKNOWN BIRD 42", "UNKNOWN BIRD 42", false},
	}
	for _, c := range cases {
		got, known := Alias(c.name)
		assert.Equal(t, c.want, got, c.name)
		assert.Equal(t, c.known, known, c.name)
	}
}

func TestArgs(t *testing.T) {
	s := config.Default()
	args := Args(s, "NOAA 19", "/data/pass")

	assert.Equal(t, []string{
		"--no-gui", "--auto",
		"--source", "rtlsdr",
		"--satellite", "NOAA-19",
		"-s", "2400000",
		"-o", "/data/pass",
		"--device-args", "index=0,ppm=0,gain=49.6",
	}, args)
}

func TestArgsWithoutDeviceArgs(t *testing.T) {
	s := config.Default()
	s.SatdumpDeviceArgs = ""
	args := Args(s, "NOAA 15", "/data/pass")
	assert.NotContains(t, args, "--device-args")
}

func TestStartMissingBinary(t *testing.T) {
	r := &Runner{Bin: "satdump-definitely-not-installed", Log: log.New(io.Discard, "", 0)}
	stop, err := r.Start("NOAA 19", t.TempDir(), config.Default())
	assert.NoError(t, err)
	assert.Nil(t, stop)
}

func TestRunBlockingMissingBinary(t *testing.T) {
	r := &Runner{Bin: "satdump-definitely-not-installed", Log: log.New(io.Discard, "", 0)}
	err := r.RunBlocking(context.Background(), "NOAA 19", t.TempDir(), config.Default(), time.Second)
	assert.NoError(t, err)
}

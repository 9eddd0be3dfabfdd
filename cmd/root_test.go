// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package cmd

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/kgx/index"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestSetAllConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "kgx")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	conf := filepath.Join(dir, "kgx.toml")
	err = ioutil.WriteFile(conf, []byte(`
strategy = "lazy"
batch-size = 50
pilosa-hosts = ["p1:10101", "p2:10101"]
`), 0666)
	if err != nil {
		t.Fatalf("writing config: %v", err)
	}

	m := index.NewMain()
	flags := pflag.NewFlagSet("index", pflag.ContinueOnError)
	flags.String("config", "", "")
	if err := commandeer.Flags(flags, m); err != nil {
		t.Fatalf("setting up flags: %v", err)
	}
	if err := flags.Parse([]string{"--config", conf, "--batch-size", "7"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	os.Setenv("KGX_CONCURRENCY", "9")
	os.Setenv("KGX_STRATEGY", "eager")
	defer os.Unsetenv("KGX_CONCURRENCY")
	defer os.Unsetenv("KGX_STRATEGY")

	if err := setAllConfig(viper.New(), flags, "KGX"); err != nil {
		t.Fatalf("setting config: %v", err)
	}
	if m.BatchSize != 7 {
		t.Fatalf("flag should win over config, got batch size %d", m.BatchSize)
	}
	if m.Concurrency != 9 || m.Strategy != "eager" {
		t.Fatalf("environment should win over config, got %d %s", m.Concurrency, m.Strategy)
	}
	if !reflect.DeepEqual(m.PilosaHosts, []string{"p1:10101", "p2:10101"}) {
		t.Fatalf("unexpected pilosa hosts %v", m.PilosaHosts)
	}
	if m.Bolt != "kgx.db" {
		t.Fatalf("default should be kept, got %s", m.Bolt)
	}
}

func TestNewRootCommand(t *testing.T) {
	rc := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	names := make(map[string]bool)
	for _, c := range rc.Commands() {
		names[c.Name()] = true
	}
	if !names["index"] || !names["load"] {
		t.Fatalf("missing subcommands, got %v", names)
	}
}

func TestSetAllConfigFlagWinsOverConfigList(t *testing.T) {
	dir, err := ioutil.TempDir("", "kgx")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	conf := filepath.Join(dir, "kgx.toml")
	if err := ioutil.WriteFile(conf, []byte(`kafka-hosts = ["k1:9092", "k2:9092"]`), 0666); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	m := index.NewMain()
	flags := pflag.NewFlagSet("index", pflag.ContinueOnError)
	flags.String("config", "", "")
	if err := commandeer.Flags(flags, m); err != nil {
		t.Fatalf("setting up flags: %v", err)
	}
	if err := flags.Parse([]string{"--config", conf, "--kafka-hosts", "k3:9092"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	if err := setAllConfig(viper.New(), flags, "KGX"); err != nil {
		t.Fatalf("setting config: %v", err)
	}
	if !reflect.DeepEqual(m.KafkaHosts, []string{"k3:9092"}) {
		t.Fatalf("flag list should replace the config list, got %v", m.KafkaHosts)
	}
}

func TestSetAllConfigMissingFile(t *testing.T) {
	flags := pflag.NewFlagSet("index", pflag.ContinueOnError)
	flags.String("config", "", "")
	if err := flags.Parse([]string{"--config", "/nonexistent/kgx.toml"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	if err := setAllConfig(viper.New(), flags, "KGX"); err == nil {
		t.Fatalf("expected error for a missing config file")
	}
}

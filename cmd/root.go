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
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// Version and BuildTime are set with -ldflags "-X" at build time.
	Version   string
	BuildTime string
)

// subcommandFns holds a constructor per subcommand. Each subcommand file
// registers itself from init, so NewRootCommand only needs this map.
var subcommandFns = map[string]func(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command{}

// NewRootCommand returns the kgx command with every registered subcommand.
// Before any subcommand runs, its flags are filled in from the command line,
// KGX_ environment variables and the --config file.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	version, built := Version, BuildTime
	if version == "" {
		version = "v0.0.0"
	}
	if built == "" {
		built = "not recorded"
	}
	rc := &cobra.Command{
		Use:   "kgx",
		Short: "kgx - knowledge graph edge indexer",
		Long: `Loads knowledge graph dumps into a local store, and indexes
every edge merged with its subject and object nodes into
Pilosa, leveldb, Kafka or S3.

Version: ` + version + `
Build Time: ` + built + "\n",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setAllConfig(viper.New(), cmd.Flags(), "KGX")
		},
	}
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from (TOML).")
	for _, fn := range subcommandFns {
		rc.AddCommand(fn(stdin, stdout, stderr))
	}
	rc.SetOutput(stderr)
	return rc
}

// setAllConfig sets every flag in flags, taking the first value found in: the
// command line, the environment variable named envPrefix_FLAG_NAME (dashes
// become underscores), the TOML file named by the config flag, and the flag's
// default. Flags point into the subcommand's Main, so this fills in Main.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet, envPrefix string) error {
	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading configuration file '%s'", path)
		}
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		// Flags given on the command line already hold their value. Setting
		// a slice flag again would append to it.
		if err != nil || f.Changed {
			return
		}
		value := v.GetString(f.Name)
		if f.Value.Type() == "stringSlice" {
			// A list in the config file reads as "" through GetString.
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		}
		if serr := f.Value.Set(value); serr != nil {
			err = errors.Wrapf(serr, "setting %s", f.Name)
		}
	})
	return err
}

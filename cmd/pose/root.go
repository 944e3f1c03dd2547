package pose

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ValentinKolb/synthd/cmd/util"
	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/ValentinKolb/synthd/lib/scene"
	"github.com/ValentinKolb/synthd/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var PoseCmd = &cobra.Command{
	Use:   "pose [index]",
	Short: "Sample poses locally without a server",
	Long: `Print the pose of an index sampled against the initial transform of the scene.
With --count the poses of count consecutive indices starting at index are
chained like on the server; with --stats only their axis statistics are printed.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error { return util.BindCommandFlags(cmd) },
	RunE:    run,
}

func init() {
	cobra.OnInitialize(util.InitEnvConfig)

	key := "scene"
	PoseCmd.Flags().String(key, "", util.WrapString("Path of a YAML scene file (empty = built in scene)"))

	key = "count"
	PoseCmd.Flags().Int(key, 1, util.WrapString("Number of consecutive indices to sample"))

	key = "stats"
	PoseCmd.Flags().Bool(key, false, util.WrapString("Print per axis statistics instead of the poses"))
}

func run(_ *cobra.Command, args []string) error {
	from, err := server.ParseIndex(args[0])
	if err != nil {
		return err
	}
	count := viper.GetInt("count")
	if count <= 0 {
		return fmt.Errorf("count must be positive")
	}

	sc, err := scene.Load(viper.GetString("scene"))
	if err != nil {
		return err
	}

	if viper.GetBool("stats") {
		out, err := yaml.Marshal(pose.Summarize(from, count, sc.Axes, sc.Mode, sc.Initial))
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	sampler := pose.NewSampler(sc.Axes, sc.Mode, sc.Initial)
	enc := json.NewEncoder(os.Stdout)
	for i := 0; i < count; i++ {
		index := from + int32(i)
		if index < from {
			// wrapped past the largest index
			break
		}
		if err := enc.Encode(sampler.Apply(index)); err != nil {
			return err
		}
	}
	return nil
}

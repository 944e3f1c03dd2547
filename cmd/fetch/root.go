package fetch

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ValentinKolb/synthd/cmd/util"
	"github.com/ValentinKolb/synthd/rpc/client"
	"github.com/ValentinKolb/synthd/rpc/serializer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is written into the output directory after every fetch
const ManifestFileName = "manifest.yaml"

var FetchCmd = &cobra.Command{
	Use:   "fetch [index...]",
	Short: "Request poses and images from a running stream server",
	Long: `Send every index as one command to the stream server and store the response in the output directory:
<index>.<format> holds the pose, <index>_cam<n>.png the image of camera n.
A manifest.yaml with the BLAKE3 digest of every file is written at the end.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error { return util.BindCommandFlags(cmd) },
	RunE:    run,
}

func init() {
	cobra.OnInitialize(util.InitEnvConfig)
	util.SetupClientFlags(FetchCmd)

	key := "out"
	FetchCmd.Flags().String(key, ".", util.WrapString("Output directory, created if missing"))

	key = "format"
	FetchCmd.Flags().String(key, "json", util.WrapString("Format of the pose files (json, binary)"))
}

// ManifestEntry describes one fetched index
type ManifestEntry struct {
	Index  int32          `yaml:"index"`
	Pose   ManifestFile   `yaml:"pose"`
	Images []ManifestFile `yaml:"images"`
}

// ManifestFile is one written file with its size and digest
type ManifestFile struct {
	Name   string `yaml:"name"`
	Size   int    `yaml:"size"`
	Blake3 string `yaml:"blake3"`
}

// Manifest lists everything a fetch wrote
type Manifest struct {
	Endpoint string          `yaml:"endpoint"`
	Fetched  time.Time       `yaml:"fetched"`
	Format   string          `yaml:"format"`
	Entries  []ManifestEntry `yaml:"entries"`
}

func run(_ *cobra.Command, args []string) error {
	indices := make([]int32, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseInt(arg, 10, 32)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid index %q: must be an integer between 0 and %d", arg, int32(^uint32(0)>>1))
		}
		indices = append(indices, int32(n))
	}

	format := viper.GetString("format")
	s, ok := serializer.New(format)
	if !ok {
		return fmt.Errorf("invalid format %s", format)
	}

	outDir := viper.GetString("out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	connector, err := util.GetClientConnector()
	if err != nil {
		return err
	}
	config := util.GetClientConfig()
	c, err := client.NewClient(config, connector)
	if err != nil {
		return err
	}
	defer c.Close()

	manifest := Manifest{Endpoint: config.Endpoint, Fetched: time.Now().UTC(), Format: s.Name()}
	for _, index := range indices {
		resp, err := c.Fetch(index)
		if err != nil {
			return fmt.Errorf("fetch of index %d failed: %w", index, err)
		}

		poseData, err := s.Serialize(resp.Pose)
		if err != nil {
			return err
		}
		entry := ManifestEntry{Index: index}
		if entry.Pose, err = writeFile(outDir, fmt.Sprintf("%d.%s", index, extension(s.Name())), poseData); err != nil {
			return err
		}
		for i, img := range resp.Images {
			file, err := writeFile(outDir, fmt.Sprintf("%d_cam%d.png", index, i), img)
			if err != nil {
				return err
			}
			entry.Images = append(entry.Images, file)
		}
		manifest.Entries = append(manifest.Entries, entry)
		fmt.Printf("index %d: %d image(s)\n", index, len(resp.Images))
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, ManifestFileName), data, 0644)
}

// writeFile writes data to dir/name and returns its manifest record
func writeFile(dir, name string, data []byte) (ManifestFile, error) {
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return ManifestFile{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	sum := blake3.Sum256(data)
	return ManifestFile{Name: name, Size: len(data), Blake3: hex.EncodeToString(sum[:])}, nil
}

func extension(serializerName string) string {
	if serializerName == "binary" {
		return "pose"
	}
	return serializerName
}

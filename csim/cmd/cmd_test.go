package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/adkrueger/Cachelab/datarecording"
	"github.com/adkrueger/Cachelab/mem/cache"
	"github.com/adkrueger/Cachelab/mem/trace"
)

func setEnv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

func tempDir() string {
	dir, err := os.MkdirTemp("", "csim")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(os.RemoveAll, dir)

	return dir
}

func writeTrace(dir, content string) string {
	path := filepath.Join(dir, "test.trace")
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

	return path
}

const evictingTrace = " L 0,1\n L 0,1\n L 1,1\n L 0,1\n"

var _ = Describe("Config", func() {
	It("should take defaults from the environment", func() {
		setEnv(EnvSetIndexBits, "4")
		setEnv(EnvAssociativity, "2")
		setEnv(EnvBlockOffsetBits, "3")
		setEnv(EnvTrace, "traces/yi.trace")
		setEnv(EnvVerbose, "true")

		c, err := defaultConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(c.SetIndexBits).To(Equal(4))
		Expect(c.Associativity).To(Equal(2))
		Expect(c.BlockOffsetBits).To(Equal(3))
		Expect(c.TracePath).To(Equal("traces/yi.trace"))
		Expect(c.Verbose).To(BeTrue())
		Expect(c.ResultsPath).To(Equal(".csim_results"))
	})

	It("should reject malformed environment values", func() {
		setEnv(EnvAssociativity, "two")

		_, err := defaultConfig()

		var configErr *cache.ConfigurationError
		Expect(errors.As(err, &configErr)).To(BeTrue())
		Expect(configErr.Field).To(Equal(EnvAssociativity))
	})

	It("should load a .env file without overriding the environment", func() {
		dir := tempDir()
		envFile := filepath.Join(dir, ".env")
		Expect(os.WriteFile(envFile,
			[]byte("CSIM_S=7\nCSIM_E=3\n"), 0o644)).To(Succeed())
		setEnv(EnvAssociativity, "5")
		DeferCleanup(os.Unsetenv, EnvSetIndexBits)

		Expect(loadDotEnv(envFile)).To(Succeed())

		Expect(os.Getenv(EnvSetIndexBits)).To(Equal("7"))
		Expect(os.Getenv(EnvAssociativity)).To(Equal("5"))
	})

	It("should ignore a missing .env file", func() {
		Expect(loadDotEnv(filepath.Join(tempDir(), ".env"))).To(Succeed())
	})

	DescribeTable("invalid configurations",
		func(c Config, field string) {
			err := c.Validate()

			var configErr *cache.ConfigurationError
			Expect(errors.As(err, &configErr)).To(BeTrue())
			Expect(configErr.Field).To(ContainSubstring(field))
		},
		Entry("negative set bits",
			Config{SetIndexBits: -1, Associativity: 1, TracePath: "t"}, "set index"),
		Entry("negative block bits",
			Config{BlockOffsetBits: -2, Associativity: 1, TracePath: "t"}, "block offset"),
		Entry("zero associativity",
			Config{TracePath: "t"}, "associativity"),
		Entry("address overflow",
			Config{SetIndexBits: 40, BlockOffsetBits: 30, Associativity: 1, TracePath: "t"},
			"set index bits + block offset bits"),
		Entry("huge associativity",
			Config{Associativity: 1_000_000_000, TracePath: "t"}, "associativity"),
		Entry("missing trace",
			Config{Associativity: 1}, "trace"),
		Entry("negative port",
			Config{Associativity: 1, TracePath: "t", MonitorPort: -1}, "port"),
	)
})

var _ = Describe("Simulate", func() {
	var (
		dir            string
		stdout, stderr *bytes.Buffer
		config         Config
	)

	BeforeEach(func() {
		dir = tempDir()
		stdout = new(bytes.Buffer)
		stderr = new(bytes.Buffer)
		config = Config{
			Associativity: 1,
			TracePath:     writeTrace(dir, evictingTrace),
			ResultsPath:   filepath.Join(dir, ".csim_results"),
		}
	})

	It("should print the summary and write the results file", func() {
		stats, err := simulate(config, stdout, stderr)

		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(Equal(cache.Stats{Hits: 1, Misses: 3, Evictions: 2}))
		Expect(stdout.String()).To(Equal("hits:1 misses:3 evictions:2\n"))

		content, err := os.ReadFile(config.ResultsPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("1 3 2\n"))
	})

	It("should print every record in verbose mode", func() {
		config.Verbose = true
		config.TracePath = writeTrace(dir, evictingTrace+" M 20,1\n")

		_, err := simulate(config, stdout, stderr)

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(Equal(
			"L 0,1 miss\n" +
				"L 0,1 hit\n" +
				"L 1,1 miss eviction\n" +
				"L 0,1 miss eviction\n" +
				"M 20,1 miss eviction hit\n" +
				"hits:2 misses:4 evictions:3\n"))
	})

	It("should skip the results file when disabled", func() {
		config.ResultsPath = ""

		_, err := simulate(config, stdout, stderr)

		Expect(err).NotTo(HaveOccurred())
		_, err = os.Stat(filepath.Join(dir, ".csim_results"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("should print a zero summary for a missing trace", func() {
		config.TracePath = filepath.Join(dir, "missing.trace")

		stats, err := simulate(config, stdout, stderr)

		Expect(err).To(MatchError(trace.ErrSourceUnavailable))
		Expect(stats).To(Equal(cache.Stats{}))
		Expect(stdout.String()).To(Equal("hits:0 misses:0 evictions:0\n"))
		Expect(stderr.String()).To(ContainSubstring("missing.trace"))
	})

	It("should not simulate an invalid configuration", func() {
		config.Associativity = 0

		_, err := simulate(config, stdout, stderr)

		var configErr *cache.ConfigurationError
		Expect(errors.As(err, &configErr)).To(BeTrue())
		Expect(stdout.String()).To(BeEmpty())
		_, err = os.Stat(config.ResultsPath)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("should record accesses into a database", func() {
		config.RecordPath = filepath.Join(dir, "record")

		_, err := simulate(config, stdout, stderr)
		Expect(err).NotTo(HaveOccurred())

		reader, err := datarecording.NewReader(config.RecordPath + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(trace.AccessTableName, trace.AccessEntry{})
		reader.MapTable(trace.ReplayTableName, trace.ReplayEntry{})

		accesses, total, err := reader.Query(context.Background(),
			trace.AccessTableName, datarecording.QueryParams{OrderBy: "Clock"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(4))
		Expect(accesses).To(HaveLen(4))
		Expect(accesses[2].(*trace.AccessEntry).Outcome).To(Equal("miss eviction"))

		replays, total, err := reader.Query(context.Background(),
			trace.ReplayTableName, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))

		summary := replays[0].(*trace.ReplayEntry)
		Expect(summary.Records).To(Equal(4))
		Expect(summary.Hits).To(Equal(uint64(1)))
		Expect(summary.Misses).To(Equal(uint64(3)))
		Expect(summary.Evictions).To(Equal(uint64(2)))
	})
})

var _ = Describe("Root command", func() {
	It("should parse the classic flags", func() {
		dir := tempDir()
		path := writeTrace(dir, evictingTrace)
		out := new(bytes.Buffer)

		root := newRootCmd()
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs([]string{
			"-s", "0", "-E", "2", "-b", "0", "-t", path,
			"--results", "",
		})

		Expect(root.Execute()).To(Succeed())
		Expect(out.String()).To(Equal("hits:2 misses:2 evictions:0\n"))
	})

	It("should fail without a trace file", func() {
		root := newRootCmd()
		root.SetOut(new(bytes.Buffer))
		root.SetErr(new(bytes.Buffer))
		root.SetArgs([]string{"-s", "1", "-E", "1", "-b", "1"})

		Expect(root.Execute()).To(HaveOccurred())
	})

	It("should evaluate the transpose routines", func() {
		out := new(bytes.Buffer)

		root := newRootCmd()
		root.SetOut(out)
		root.SetArgs([]string{"transpose", "-M", "8", "-N", "8",
			"--func", "Simple row-wise scan transpose"})

		Expect(root.Execute()).To(Succeed())
		Expect(out.String()).To(HavePrefix("Simple row-wise scan transpose (8x8): "))
		Expect(out.String()).To(HaveSuffix(", correct\n"))
	})

	It("should reject unknown transpose routines", func() {
		root := newRootCmd()
		root.SetOut(new(bytes.Buffer))
		root.SetArgs([]string{"transpose", "--func", "nope"})

		Expect(root.Execute()).To(HaveOccurred())
	})
})

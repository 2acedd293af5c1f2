package neoreel_test

import (
	"os"
	"path/filepath"

	"github.com/kevin-cantwell/neoreel"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "neoreel")
		Expect(err).NotTo(HaveOccurred())
		os.Unsetenv("NEOREEL_DIR")
		os.Unsetenv("NEOREEL_RATE")
	})

	AfterEach(func() {
		os.Unsetenv("NEOREEL_DIR")
		os.Unsetenv("NEOREEL_RATE")
		os.RemoveAll(dir)
	})

	writeConfig := func(body string) string {
		path := filepath.Join(dir, "neoreel.yml")
		Expect(os.WriteFile(path, []byte(body), 0644)).To(Succeed())
		return path
	}

	It("defaults to src/animations at 24 fps", func() {
		cfg, err := neoreel.LoadConfig("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(neoreel.Config{Dir: "src/animations", Rate: 24}))
	})

	It("reads a YAML file", func() {
		cfg, err := neoreel.LoadConfig(writeConfig("dir: /tmp/reels\nrate: 12\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(neoreel.Config{Dir: "/tmp/reels", Rate: 12}))
	})

	It("keeps defaults the file leaves out", func() {
		cfg, err := neoreel.LoadConfig(writeConfig("rate: 30\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Dir).To(Equal(neoreel.DefaultDir))
		Expect(cfg.Rate).To(Equal(30))
	})

	It("lets the environment override the file", func() {
		os.Setenv("NEOREEL_DIR", "/var/reels")
		cfg, err := neoreel.LoadConfig(writeConfig("dir: /tmp/reels\nrate: 12\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(neoreel.Config{Dir: "/var/reels", Rate: 12}))
	})

	It("rejects unknown keys", func() {
		_, err := neoreel.LoadConfig(writeConfig("fps: 12\n"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-positive rate", func() {
		os.Setenv("NEOREEL_RATE", "0")
		_, err := neoreel.LoadConfig("")
		Expect(err).To(MatchError(ContainSubstring("rate must be positive")))
	})

	It("rejects a malformed rate", func() {
		os.Setenv("NEOREEL_RATE", "fast")
		_, err := neoreel.LoadConfig("")
		Expect(err).To(HaveOccurred())
	})

	It("reports missing files", func() {
		_, err := neoreel.LoadConfig(filepath.Join(dir, "missing.yml"))
		Expect(err).To(HaveOccurred())
	})
})

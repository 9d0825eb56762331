package dotdir

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Manager", func() {
	var manager *Manager

	BeforeEach(func() {
		manager = NewManager()
	})

	It("uses the override directory when provided", func() {
		override := filepath.Join(GinkgoT().TempDir(), "custom")

		target, err := manager.Target(override)
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(Equal(override))

		info, err := os.Stat(target)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("prefers a local .noema directory over the home one", func() {
		workDir := GinkgoT().TempDir()
		local := filepath.Join(workDir, ".noema")
		Expect(os.Mkdir(local, 0o755)).To(Succeed())

		GinkgoT().Chdir(workDir)

		target, err := manager.Target("")
		Expect(err).NotTo(HaveOccurred())
		// Resolve symlinks so macOS /var vs /private/var temp paths compare.
		resolvedTarget, err := filepath.EvalSymlinks(target)
		Expect(err).NotTo(HaveOccurred())
		resolvedLocal, err := filepath.EvalSymlinks(local)
		Expect(err).NotTo(HaveOccurred())
		Expect(resolvedTarget).To(Equal(resolvedLocal))
	})

	It("falls back to the home directory", func() {
		workDir := GinkgoT().TempDir()
		GinkgoT().Chdir(workDir)

		home := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", home)

		target, err := manager.Target("")
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(Equal(filepath.Join(home, ".noema")))
	})
})

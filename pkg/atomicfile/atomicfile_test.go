package atomicfile_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/linkpulse/pkg/atomicfile"
)

var _ = Describe("WriteFile", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should create missing parent directories", func() {
		path := filepath.Join(dir, "a", "b", "out.json")
		Expect(atomicfile.WriteFile(path, []byte("{}"), 0o644)).To(Succeed())
		Expect(path).To(BeAnExistingFile())
	})

	It("should replace existing content and leave no temp files", func() {
		path := filepath.Join(dir, "out.json")
		Expect(atomicfile.WriteFile(path, []byte("one"), 0o644)).To(Succeed())
		Expect(atomicfile.WriteFile(path, []byte("two"), 0o644)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("two"))

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("should fail when the parent is a file", func() {
		blocker := filepath.Join(dir, "blocker")
		Expect(os.WriteFile(blocker, nil, 0o644)).To(Succeed())
		Expect(atomicfile.WriteFile(filepath.Join(blocker, "out.json"), []byte("x"), 0o644)).NotTo(Succeed())
	})
})

package integration

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/component-registry-server/test-integration/registry-api/helpers"
)

const testToken = "integration-token"

var _ = Describe("Component Registry", Label("file"), func() {
	var (
		tempDir      string
		catalogPath  string
		tokenFile    string
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("component-registry-")
		catalogPath = helpers.WriteCatalog(tempDir, helpers.CreateDefaultComponents())

		tokenFile = filepath.Join(tempDir, "token")
		Expect(os.WriteFile(tokenFile, []byte(testToken+"\n"), 0600)).To(Succeed())

		configFile := helpers.WriteConfigYAML(tempDir, helpers.ServerConfig{
			CatalogPath: catalogPath,
			FilesRoot:   tempDir,
			TokenFile:   tokenFile,
			SiteTitle:   "Example UI",
			Prometheus:  true,
		})

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		cleanupTempDir(tempDir)
	})

	Context("public routes", func() {
		It("serves an item with its file contents", func() {
			resp := serverHelper.Get("/registry/public/button", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body := resp.JSON()
			Expect(body["name"]).To(Equal("button"))
			files, ok := body["files"].([]any)
			Expect(ok).To(BeTrue())
			Expect(files).To(HaveLen(1))
			Expect(files[0]).To(HaveKeyWithValue("content", "export function Button() { return <button /> }"))
		})

		It("keeps file order", func() {
			resp := serverHelper.Get("/registry/public/card", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			files := resp.JSON()["files"].([]any)
			Expect(files).To(HaveLen(2))
			Expect(files[0]).To(HaveKeyWithValue("path", "ui/card-header.tsx"))
			Expect(files[1]).To(HaveKeyWithValue("path", "ui/card.tsx"))
		})

		It("serves the whole catalog", func() {
			resp := serverHelper.Get("/registry/public", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var entries []map[string]any
			Expect(json.Unmarshal(resp.Body, &entries)).To(Succeed())
			Expect(entries).To(HaveLen(5))
		})

		It("maps failures to status codes", func() {
			notFound := serverHelper.Get("/registry/public/does-not-exist", "")
			Expect(notFound.StatusCode).To(Equal(http.StatusNotFound))
			Expect(notFound.JSON()).To(Equal(map[string]any{
				"path":    "/registry/public/does-not-exist",
				"message": "Invalid URL",
			}))

			noFiles := serverHelper.Get("/registry/public/theme", "")
			Expect(noFiles.StatusCode).To(Equal(http.StatusNotFound))

			invalid := serverHelper.Get("/registry/public/broken", "")
			Expect(invalid.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(invalid.JSON()).To(HaveKey("message"))

			unreadable := serverHelper.Get("/registry/public/orphan", "")
			Expect(unreadable.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(string(unreadable.Body)).NotTo(ContainSubstring(tempDir))
		})
	})

	Context("private routes", func() {
		It("rejects requests without a valid token", func() {
			for _, path := range []string{"/registry/button", "/registry", "/registry/button?token=wrong"} {
				resp := serverHelper.Get(path, "")
				Expect(resp.StatusCode).To(Equal(http.StatusForbidden), path)
				Expect(resp.JSON()).To(Equal(map[string]any{"message": "Invalid credentials."}))
			}
		})

		It("accepts a bearer token or a token query parameter", func() {
			Expect(serverHelper.Get("/registry/button", testToken).StatusCode).To(Equal(http.StatusOK))
			Expect(serverHelper.Get("/registry/button?token="+testToken, "").StatusCode).To(Equal(http.StatusOK))
		})

		It("returns the catalog for the registry name", func() {
			resp := serverHelper.Get("/registry/registry", testToken)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var entries []map[string]any
			Expect(json.Unmarshal(resp.Body, &entries)).To(Succeed())
			Expect(entries).To(HaveLen(5))
		})

		It("picks up a rotated token file", func() {
			Expect(os.WriteFile(tokenFile, []byte("rotated"), 0600)).To(Succeed())

			Expect(serverHelper.Get("/registry/button", testToken).StatusCode).To(Equal(http.StatusForbidden))
			Expect(serverHelper.Get("/registry/button", "rotated").StatusCode).To(Equal(http.StatusOK))
		})
	})

	Context("catalog changes", func() {
		It("reads the catalog on every request", func() {
			helpers.WriteCatalog(tempDir, []helpers.ComponentFixture{{
				Name:  "badge",
				Type:  "registry:ui",
				Files: map[string]string{"ui/badge.tsx": "export function Badge() {}"},
			}})

			Expect(serverHelper.Get("/registry/public/badge", "").StatusCode).To(Equal(http.StatusOK))
			Expect(serverHelper.Get("/registry/public/button", "").StatusCode).To(Equal(http.StatusNotFound))
		})

		It("reports the registry as unavailable when the catalog is gone", func() {
			Expect(os.Remove(catalogPath)).To(Succeed())

			Expect(serverHelper.Get("/readiness", "").StatusCode).To(Equal(http.StatusServiceUnavailable))

			resp := serverHelper.Get("/registry/public/button", "")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(resp.JSON()).To(HaveKeyWithValue("message", "Registry not found"))
		})
	})

	Context("ambient routes", func() {
		It("serves head, version and metrics", func() {
			head := serverHelper.Get("/head", "")
			Expect(head.StatusCode).To(Equal(http.StatusOK))
			Expect(head.JSON()).To(HaveKeyWithValue("title", "Example UI"))

			Expect(serverHelper.Get("/version", "").StatusCode).To(Equal(http.StatusOK))

			serverHelper.Get("/registry/public/button", "")
			metrics := serverHelper.Get("/metrics", "")
			Expect(metrics.StatusCode).To(Equal(http.StatusOK))
			Expect(string(metrics.Body)).To(ContainSubstring("component_registry_item_lookup_duration_seconds"))
		})
	})

	It("serves concurrent requests independently", func() {
		var wg sync.WaitGroup
		for i := range 20 {
			name, want := "button", http.StatusOK
			if i%2 == 1 {
				name, want = "does-not-exist", http.StatusNotFound
			}
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(serverHelper.Get("/registry/public/"+name, "").StatusCode).To(Equal(want))
			}()
		}
		wg.Wait()
	})
})

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var peopleImportCmd = &cobra.Command{
	Use:   "import [directory]",
	Short: "Bulk-enroll people from a directory tree",
	Long: `Bulk-enroll people from a directory with one subdirectory per person.
The subdirectory name becomes the person's name and every image inside
it is enrolled as a face sample:

  gallery/
    Ada Lovelace/
      front.jpg
      side.jpg
    Grace Hopper/
      portrait.png

People already enrolled under the same name are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runPeopleImport,
}

func init() {
	peopleCmd.AddCommand(peopleImportCmd)

	peopleImportCmd.Flags().Int("concurrency", 4, "Number of people processed in parallel")
	peopleImportCmd.Flags().Bool("dry-run", false, "List what would be enrolled without touching the gallery")
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// personImport is one person's pending enrollment: the directory name
// and the photos found inside.
type personImport struct {
	name   string
	photos []string
}

func collectImports(dir string) ([]personImport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imports []personImport
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		personDir := filepath.Join(dir, entry.Name())
		files, err := os.ReadDir(personDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", personDir, err)
		}

		var photos []string
		for _, file := range files {
			if !file.IsDir() && isImageFile(file.Name()) {
				photos = append(photos, filepath.Join(personDir, file.Name()))
			}
		}
		sort.Strings(photos)

		if len(photos) > 0 {
			imports = append(imports, personImport{name: entry.Name(), photos: photos})
		}
	}
	return imports, nil
}

func runPeopleImport(cmd *cobra.Command, args []string) error {
	dir := args[0]
	concurrency := mustGetInt(cmd, "concurrency")
	dryRun := mustGetBool(cmd, "dry-run")

	imports, err := collectImports(dir)
	if err != nil {
		return err
	}
	if len(imports) == 0 {
		fmt.Println("No person directories with images found.")
		return nil
	}

	totalPhotos := 0
	for _, imp := range imports {
		totalPhotos += len(imp.photos)
	}
	fmt.Printf("Found %d people with %d photo(s) in %s\n", len(imports), totalPhotos, dir)

	if dryRun {
		fmt.Println("Mode: DRY RUN (no changes will be applied)")
		for _, imp := range imports {
			fmt.Printf("  %s: %d photo(s)\n", imp.name, len(imp.photos))
		}
		return nil
	}

	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println("Loading face models...")
	if err := app.pipeline.WarmUp(ctx); err != nil {
		return fmt.Errorf("failed to load face models: %w", err)
	}
	fmt.Println()

	bar := progressbar.NewOptions(totalPhotos,
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var (
		enrolled     int
		samples      int
		skipped      int
		importErrors []string
		mu           sync.Mutex
		wg           sync.WaitGroup
		sem          = make(chan struct{}, concurrency)
	)

	for _, imp := range imports {
		wg.Add(1)
		go func(imp personImport) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if _, err := app.registry.FindByName(imp.name); err == nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				bar.Add(len(imp.photos))
				return
			}

			var profile *recognizer.Profile
			for _, photoPath := range imp.photos {
				photo, err := os.ReadFile(photoPath)
				if err != nil {
					mu.Lock()
					importErrors = append(importErrors, fmt.Sprintf("%s: %v", photoPath, err))
					mu.Unlock()
					bar.Add(1)
					continue
				}

				face, _, err := app.pipeline.ExtractFace(ctx, photo)
				if err != nil {
					if !errors.Is(err, monitor.ErrNoFace) {
						mu.Lock()
						importErrors = append(importErrors, fmt.Sprintf("%s: %v", photoPath, err))
						mu.Unlock()
					}
					bar.Add(1)
					continue
				}

				if profile == nil {
					profile, err = app.registry.Enroll(ctx, imp.name, face.Descriptor, photo)
				} else {
					err = app.registry.AddSample(ctx, profile.ID, face.Descriptor, photo)
				}
				if err != nil {
					mu.Lock()
					importErrors = append(importErrors, fmt.Sprintf("%s: %v", photoPath, err))
					mu.Unlock()
					bar.Add(1)
					continue
				}

				mu.Lock()
				samples++
				mu.Unlock()
				bar.Add(1)
			}

			if profile != nil {
				mu.Lock()
				enrolled++
				mu.Unlock()
			}
		}(imp)
	}
	wg.Wait()
	fmt.Println()

	app.suggest.Sync(app.store)

	for _, errMsg := range importErrors {
		fmt.Printf("Failed: %s\n", errMsg)
	}

	fmt.Printf("\nDone! Enrolled %d people with %d face sample(s)\n", enrolled, samples)
	if skipped > 0 {
		fmt.Printf("Skipped %d people already enrolled\n", skipped)
	}
	if len(importErrors) > 0 {
		fmt.Printf("Errors: %d\n", len(importErrors))
	}
	return nil
}

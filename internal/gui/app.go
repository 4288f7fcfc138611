package gui

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/text/language"

	"github.com/cmuturi/resume-ranker/internal/client"
	"github.com/cmuturi/resume-ranker/internal/config"
	"github.com/cmuturi/resume-ranker/internal/export"
	"github.com/cmuturi/resume-ranker/internal/ingestion"
	"github.com/cmuturi/resume-ranker/internal/models"
	"github.com/cmuturi/resume-ranker/internal/results"
	"github.com/cmuturi/resume-ranker/internal/submission"
)

const (
	// gmailCredentialsFilename is the fallback filename for Gmail API credentials
	gmailCredentialsFilename = "credentials.json"
)

// App represents the main GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	config     *config.Config
	client     *client.Client
	controller *submission.Controller
	files      *ingestion.FileHandler
	engine     *results.Engine

	// UI Components
	jobDescText    *widget.Entry
	fileList       *widget.List
	addFileBtn     *widget.Button
	clearFilesBtn  *widget.Button
	subjectEntry   *widget.Entry
	fetchGmailBtn  *widget.Button
	submitBtn      *widget.Button
	progressBar    *widget.ProgressBar
	progressLabel  *widget.Label
	sortSelect     *widget.Select
	minScoreSlider *widget.Slider
	minScoreLabel  *widget.Label
	statsLabel     *widget.Label
	resultsList    *widget.List
	detailLabel    *widget.Label
	exportBtn      *widget.Button

	selected  []models.ResumeFile
	resultSet *models.ResultSet
	viewState models.ViewState
	visible   []models.RankedResult
}

// NewApp creates a new GUI application
func NewApp() *App {
	a := app.New()
	w := a.NewWindow("Resume Ranker")
	w.Resize(fyne.NewSize(1000, 700))

	guiApp := &App{
		fyneApp:    a,
		mainWindow: w,
		engine:     results.NewEngine(language.English),
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		cfg = config.DefaultConfig()
	}
	guiApp.config = cfg

	guiApp.files = ingestion.NewFileHandler(cfg.UploadsDir)
	guiApp.rebuildClient()

	// Setup UI
	guiApp.setupUI()

	return guiApp
}

// rebuildClient reconstructs the ranking client and controller from the
// current configuration. The transport configuration is immutable, so a
// settings change means a new client.
func (a *App) rebuildClient() {
	a.client = client.New(client.Config{
		BaseURL: a.config.ServiceBaseURL,
		Timeout: a.config.RequestTimeout(),
	})
	a.controller = submission.NewController(a.client)
	a.controller.SetProgressCallback(func(current, total int, message string) {
		fyne.Do(func() {
			a.progressBar.SetValue(float64(current) / float64(total))
			a.progressLabel.SetText(message)
		})
	})
}

// Run starts the GUI application
func (a *App) Run() {
	a.mainWindow.ShowAndRun()
}

// setupUI initializes all UI components
func (a *App) setupUI() {
	tabs := container.NewAppTabs(
		container.NewTabItem("Rank Resumes", a.createSubmitTab()),
		container.NewTabItem("Settings", a.createSettingsTab()),
	)

	a.mainWindow.SetContent(tabs)
}

// createSubmitTab creates the main submission and results tab
func (a *App) createSubmitTab() fyne.CanvasObject {
	// Job description section
	a.jobDescText = widget.NewMultiLineEntry()
	a.jobDescText.SetPlaceHolder("Paste the job description (at least 50 characters)...")
	a.jobDescText.SetMinRowsVisible(5)

	// File selection section
	a.fileList = widget.NewList(
		func() int {
			return len(a.selected)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < len(a.selected) {
				f := a.selected[id]
				item.(*widget.Label).SetText(fmt.Sprintf("%s (%.1f KiB)", f.Name, float64(f.Size)/1024))
			}
		},
	)
	a.fileList.OnSelected = func(id widget.ListItemID) {
		a.files.Remove(id)
		a.refreshFiles()
	}

	a.addFileBtn = widget.NewButton("Add Resume...", a.handleAddFile)
	a.clearFilesBtn = widget.NewButton("Clear", func() {
		a.files.Clear()
		a.refreshFiles()
	})

	a.subjectEntry = widget.NewEntry()
	a.subjectEntry.SetPlaceHolder("e.g., Job Application")
	a.fetchGmailBtn = widget.NewButton("Fetch from Gmail", a.handleFetchGmail)

	fileSection := container.NewVBox(
		widget.NewLabel("Resumes (PDF, up to 10, tap to remove)"),
		container.NewHBox(a.addFileBtn, a.clearFilesBtn),
		container.NewHBox(widget.NewLabel("Gmail subject:"), a.subjectEntry, a.fetchGmailBtn),
	)

	// Progress section
	a.progressBar = widget.NewProgressBar()
	a.progressLabel = widget.NewLabel("Ready")
	a.submitBtn = widget.NewButton("Rank Resumes", a.handleSubmit)

	// Results controls
	a.sortSelect = widget.NewSelect([]string{"Score", "Name"}, func(v string) {
		if v == "Name" {
			a.viewState.SortKey = models.SortByName
		} else {
			a.viewState.SortKey = models.SortByScore
		}
		a.refreshResults()
	})
	a.sortSelect.SetSelected("Score")

	a.minScoreSlider = widget.NewSlider(0, 100)
	a.minScoreSlider.Step = 5
	a.minScoreLabel = widget.NewLabel("Min score: 0")
	a.minScoreSlider.OnChanged = func(v float64) {
		a.viewState.MinScore = int(v)
		a.minScoreLabel.SetText(fmt.Sprintf("Min score: %d", a.viewState.MinScore))
		a.refreshResults()
	}

	a.statsLabel = widget.NewLabel("No results yet. Submit a job description and resumes.")

	a.resultsList = widget.NewList(
		func() int {
			return len(a.visible)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < len(a.visible) {
				r := a.visible[id]
				marker := " "
				if r.ID == a.viewState.ExpandedID {
					marker = "▾"
				}
				item.(*widget.Label).SetText(fmt.Sprintf("%s %d. %s — %d (%s)",
					marker, r.Rank, r.Name, r.Score, models.CategoryForScore(r.Score)))
			}
		},
	)
	a.resultsList.OnSelected = func(id widget.ListItemID) {
		if id < len(a.visible) {
			a.viewState = results.ToggleExpanded(a.viewState, a.visible[id].ID)
			a.refreshResults()
		}
		a.resultsList.UnselectAll()
	}

	a.detailLabel = widget.NewLabel("")
	a.detailLabel.Wrapping = fyne.TextWrapWord

	a.exportBtn = widget.NewButton("Export to Excel", a.handleExport)
	a.exportBtn.Disable()

	resultsSection := container.NewVBox(
		widget.NewLabel("Results"),
		container.NewHBox(widget.NewLabel("Sort by:"), a.sortSelect, a.minScoreLabel),
		a.minScoreSlider,
		a.statsLabel,
		container.NewScroll(a.resultsList),
		a.detailLabel,
		a.exportBtn,
	)

	content := container.NewVScroll(
		container.NewVBox(
			widget.NewLabel("Job Description"),
			a.jobDescText,
			widget.NewSeparator(),
			fileSection,
			container.NewScroll(a.fileList),
			widget.NewSeparator(),
			a.progressLabel,
			a.progressBar,
			a.submitBtn,
			widget.NewSeparator(),
			resultsSection,
		),
	)

	return content
}

// createSettingsTab creates the settings tab
func (a *App) createSettingsTab() fyne.CanvasObject {
	urlEntry := widget.NewEntry()
	urlEntry.SetText(a.config.ServiceBaseURL)

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(strconv.Itoa(a.config.RequestTimeoutSecs))

	uploadsEntry := widget.NewEntry()
	uploadsEntry.SetText(a.config.UploadsDir)

	gmailCredsEntry := widget.NewEntry()
	gmailCredsEntry.SetText(a.config.GmailCredentialsPath)

	gmailCredsBtn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err == nil && uc != nil {
				gmailCredsEntry.SetText(uc.URI().Path())
				uc.Close()
			}
		}, a.mainWindow)
	})

	form := widget.NewForm(
		widget.NewFormItem("Service URL", urlEntry),
		widget.NewFormItem("Request Timeout (s)", timeoutEntry),
		widget.NewFormItem("Uploads Directory", uploadsEntry),
		widget.NewFormItem("Gmail Credentials", container.NewBorder(nil, nil, nil, gmailCredsBtn, gmailCredsEntry)),
	)

	saveBtn := widget.NewButton("Save Settings", func() {
		secs, err := strconv.Atoi(timeoutEntry.Text)
		if err != nil || secs <= 0 {
			dialog.ShowError(fmt.Errorf("request timeout must be a positive number of seconds"), a.mainWindow)
			return
		}

		a.config.ServiceBaseURL = urlEntry.Text
		a.config.RequestTimeoutSecs = secs
		a.config.UploadsDir = uploadsEntry.Text
		a.config.GmailCredentialsPath = gmailCredsEntry.Text

		if err := a.config.Validate(); err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}

		if err := a.config.Save(); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}

		a.files = ingestion.NewFileHandler(a.config.UploadsDir)
		a.rebuildClient()

		dialog.ShowInformation("Success", "Settings saved successfully", a.mainWindow)
	})

	healthBtn := widget.NewButton("Check Service Health", a.handleHealthCheck)
	statsBtn := widget.NewButton("Service Stats", a.handleServiceStats)
	clearCacheBtn := widget.NewButton("Clear Service Cache", a.handleClearCache)

	return container.NewVBox(
		form,
		container.NewHBox(saveBtn, healthBtn, statsBtn, clearCacheBtn),
	)
}

// handleAddFile opens a file picker and stages the chosen resume
func (a *App) handleAddFile() {
	dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		path := uc.URI().Path()
		uc.Close()

		if _, err := a.files.Stage(path); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		a.refreshFiles()
	}, a.mainWindow)
}

// handleFetchGmail downloads PDF attachments matching the subject filter
func (a *App) handleFetchGmail() {
	subject := a.subjectEntry.Text
	if subject == "" {
		dialog.ShowError(fmt.Errorf("please enter an email subject filter"), a.mainWindow)
		return
	}

	credsPath := a.config.GmailCredentialsPath
	if credsPath == "" {
		credsPath = gmailCredentialsFilename
	}

	a.fetchGmailBtn.Disable()
	a.progressLabel.SetText("Connecting to Gmail...")

	go func() {
		handler, err := ingestion.NewGmailHandlerWithCallback(credsPath, a.files, func(current, total int, message string) {
			fyne.Do(func() {
				a.progressLabel.SetText(message)
			})
		})
		if err != nil {
			fyne.Do(func() {
				a.fetchGmailBtn.Enable()
				a.progressLabel.SetText("Ready")
				dialog.ShowError(fmt.Errorf("gmail authentication failed: %w", err), a.mainWindow)
			})
			return
		}

		staged, err := handler.FetchResumes(context.Background(), subject)

		fyne.Do(func() {
			a.fetchGmailBtn.Enable()
			if err != nil {
				a.progressLabel.SetText("Ready")
				dialog.ShowError(err, a.mainWindow)
				return
			}
			a.progressLabel.SetText(fmt.Sprintf("Fetched %d resumes from Gmail", len(staged)))
			a.refreshFiles()
		})
	}()
}

// handleSubmit validates the inputs and runs the ranking submission
func (a *App) handleSubmit() {
	a.controller.SetJobDescription(a.jobDescText.Text)
	a.controller.SetFiles(a.files.Selected())

	// Re-entry is blocked both here and in the controller.
	a.submitBtn.Disable()

	ctx, cancel := context.WithTimeout(context.Background(), a.config.RequestTimeout())

	go func() {
		defer cancel()
		resultSet, err := a.controller.Submit(ctx)

		fyne.Do(func() {
			a.submitBtn.Enable()

			if err != nil {
				// Inputs stay as they are so the user can correct and retry.
				dialog.ShowError(err, a.mainWindow)
				return
			}

			// Success clears the form for the next submission. Sort and
			// filter settings persist; expansion resets with the new IDs.
			a.jobDescText.SetText("")
			a.files.Clear()
			a.refreshFiles()

			a.resultSet = resultSet
			a.viewState.ExpandedID = ""
			a.exportBtn.Enable()
			a.refreshResults()

			a.fyneApp.SendNotification(&fyne.Notification{
				Title:   "Ranking Complete",
				Content: fmt.Sprintf("Ranked %d resumes", len(resultSet.Results)),
			})
		})
	}()
}

// handleExport writes the current ResultSet to an Excel workbook
func (a *App) handleExport() {
	if a.resultSet == nil || len(a.resultSet.Results) == 0 {
		dialog.ShowError(fmt.Errorf("no results to export"), a.mainWindow)
		return
	}

	timestamp := time.Now().Format("2006-01-02_150405")
	defaultName := fmt.Sprintf("Resume_Ranking_%s.xlsx", timestamp)

	saveDialog := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		outputPath := uc.URI().Path()

		view := a.engine.DeriveView(a.resultSet, a.viewState)
		if err := export.ExportToExcel(a.resultSet, view.Stats, outputPath); err != nil {
			dialog.ShowError(fmt.Errorf("failed to export: %w", err), a.mainWindow)
			return
		}

		dialog.ShowInformation("Success", "Results exported successfully to "+filepath.Base(outputPath), a.mainWindow)
	}, a.mainWindow)
	saveDialog.SetFileName(defaultName)
	saveDialog.Show()
}

// handleHealthCheck probes the service liveness endpoint
func (a *App) handleHealthCheck() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		health, err := a.client.Health(ctx)

		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(fmt.Errorf("health check failed: %w", err), a.mainWindow)
				return
			}
			dialog.ShowInformation("Service Health",
				fmt.Sprintf("Status: %s\nCache size: %d", health.Status, health.CacheSize), a.mainWindow)
		})
	}()
}

// handleServiceStats fetches the service counters. A failing stats probe is
// not an error the user has to deal with: log it and show nothing.
func (a *App) handleServiceStats() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		stats, err := a.client.Stats(ctx)
		if err != nil {
			log.Printf("Stats probe failed (non-fatal): %v", err)
			fyne.Do(func() {
				dialog.ShowInformation("Service Stats", "Service statistics are currently unavailable", a.mainWindow)
			})
			return
		}

		fyne.Do(func() {
			dialog.ShowInformation("Service Stats",
				fmt.Sprintf("Cached embeddings: %d\nActive clients: %d\nRate limit: %d requests per %d s",
					stats.CachedEmbeddings, stats.ActiveClients, stats.RateLimitRequests, stats.RateLimitWindow),
				a.mainWindow)
		})
	}()
}

// handleClearCache runs the administrative cache-clear call
func (a *App) handleClearCache() {
	dialog.ShowConfirm("Clear Service Cache", "Clear the ranking service's embedding cache?", func(ok bool) {
		if !ok {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			cleared, err := a.client.ClearCache(ctx)

			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(fmt.Errorf("failed to clear cache: %w", err), a.mainWindow)
					return
				}
				dialog.ShowInformation("Cache Cleared", fmt.Sprintf("Cleared %d entries", cleared), a.mainWindow)
			})
		}()
	}, a.mainWindow)
}

// refreshFiles syncs the file list widget with the staged selection
func (a *App) refreshFiles() {
	a.selected = a.files.Selected()
	a.fileList.UnselectAll()
	a.fileList.Refresh()
}

// refreshResults rederives the visible view from the current ResultSet and
// view state. An empty or absent ResultSet renders the placeholder instead.
func (a *App) refreshResults() {
	if a.resultSet == nil || len(a.resultSet.Results) == 0 {
		a.visible = nil
		a.statsLabel.SetText("No results yet. Submit a job description and resumes.")
		a.detailLabel.SetText("")
		a.resultsList.Refresh()
		return
	}

	view := a.engine.DeriveView(a.resultSet, a.viewState)
	a.visible = view.Visible

	a.statsLabel.SetText(fmt.Sprintf("Total: %d    Average: %.1f    Top: %d    Showing: %d",
		view.Stats.Total, view.Stats.AvgScore, view.Stats.TopScore, len(view.Visible)))

	a.detailLabel.SetText(a.expandedDetail())
	a.resultsList.Refresh()
}

// expandedDetail renders the assessment and explanation of the expanded
// result, if one is expanded and still visible.
func (a *App) expandedDetail() string {
	if a.viewState.ExpandedID == "" {
		return ""
	}
	for _, r := range a.visible {
		if r.ID == a.viewState.ExpandedID {
			detail := fmt.Sprintf("%s — %d (%s)", r.Name, r.Score, models.CategoryForScore(r.Score))
			if r.Assessment != "" {
				detail += "\n" + r.Assessment
			}
			if r.Explanation != "" {
				detail += "\n\n" + r.Explanation
			}
			return detail
		}
	}
	return ""
}

package classify

import "fmt"

// Category is a human-facing file type bucket
type Category struct {
	Name  string
	Label string
}

// Category names
const (
	CategoryImage        = "image"
	CategoryVideo        = "video"
	CategoryAudio        = "audio"
	CategoryPDF          = "pdf"
	CategoryWord         = "word"
	CategorySpreadsheet  = "spreadsheet"
	CategoryPresentation = "presentation"
	CategoryText         = "text"
	CategoryArchive      = "archive"
	CategoryCode         = "code"
	CategoryData         = "data"
	CategoryConfig       = "config"
	CategoryDatabase     = "database"
	CategoryInstaller    = "installer"
	CategoryDesign       = "design"
	CategoryOfficeSuite  = "office_suite"
	CategoryEbook        = "ebook"
	CategoryDiskImage    = "disk_image"
	CategoryMobileApp    = "mobile_app"
	CategoryLog          = "log"
	CategoryBackup       = "backup"
	CategoryTemp         = "temp"
)

var categoryTable = []struct {
	category   Category
	extensions []string
}{
	{Category{CategoryImage, "🖼️ image"}, []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp", "svg", "ico"}},
	{Category{CategoryVideo, "🎬 video"}, []string{"mp4", "avi", "mov", "wmv", "flv", "mkv", "webm", "m4v", "3gp"}},
	{Category{CategoryAudio, "🎵 audio"}, []string{"mp3", "wav", "aac", "flac", "ogg", "m4a", "wma", "aiff"}},
	{Category{CategoryPDF, "📄 PDF document"}, []string{"pdf"}},
	{Category{CategoryWord, "📝 Word document"}, []string{"doc", "docx"}},
	{Category{CategorySpreadsheet, "📊 Excel spreadsheet"}, []string{"xls", "xlsx"}},
	{Category{CategoryPresentation, "📈 PowerPoint presentation"}, []string{"ppt", "pptx"}},
	{Category{CategoryText, "📄 text file"}, []string{"txt", "rtf", "md"}},
	{Category{CategoryArchive, "📦 archive"}, []string{"zip", "rar", "7z", "tar", "gz", "bz2"}},
	{Category{CategoryCode, "💻 source code"}, []string{"html", "htm", "css", "js", "php", "py", "java", "swift", "c", "cpp", "h", "cs", "rb", "go", "rs"}},
	{Category{CategoryData, "📋 data file"}, []string{"json", "xml", "csv", "yaml", "yml"}},
	{Category{CategoryConfig, "⚙️ property list"}, []string{"plist"}},
	{Category{CategoryDatabase, "🗄️ database"}, []string{"db", "sqlite", "sql"}},
	{Category{CategoryInstaller, "⚙️ installer package"}, []string{"exe", "pkg", "deb", "rpm"}},
	{Category{CategoryDesign, "🎨 design file"}, []string{"psd", "ai", "sketch", "fig"}},
	{Category{CategoryOfficeSuite, "📱 iWork document"}, []string{"pages", "numbers", "keynote"}},
	{Category{CategoryEbook, "📚 e-book"}, []string{"epub", "mobi", "azw3"}},
	{Category{CategoryDiskImage, "💿 disk image"}, []string{"dmg", "iso", "img"}},
	{Category{CategoryMobileApp, "📱 iOS app package"}, []string{"ipa"}},
	{Category{CategoryLog, "📋 log file"}, []string{"log"}},
	{Category{CategoryBackup, "💾 backup file"}, []string{"bak", "backup"}},
	{Category{CategoryTemp, "🗑️ temp file"}, []string{"tmp", "temp"}},
}

var byExtension = buildIndex()

func buildIndex() map[string]Category {
	index := make(map[string]Category)
	for _, row := range categoryTable {
		for _, ext := range row.extensions {
			index[ext] = row.category
		}
	}
	return index
}

// Lookup returns the category registered for a lowercased extension
func Lookup(ext string) (Category, bool) {
	c, ok := byExtension[ext]
	return c, ok
}

// Extensions returns the extensions registered for a category name
func Extensions(name string) []string {
	for _, row := range categoryTable {
		if row.category.Name == name {
			out := make([]string, len(row.extensions))
			copy(out, row.extensions)
			return out
		}
	}
	return nil
}

// label returns the display label for ext, falling back to the
// no-extension and unknown-type labels.
func label(ext string) string {
	if c, ok := Lookup(ext); ok {
		return c.Label
	}
	if ext == "" {
		return "📄 file with no extension"
	}
	return fmt.Sprintf("❓ unknown file type (.%s)", ext)
}

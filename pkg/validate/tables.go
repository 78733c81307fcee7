package validate

// Static classification tables. Built once at package init and treated as
// immutable; nothing in this package mutates them after start.

const (
	mimePDF  = "application/pdf"
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
	mimeGIF  = "image/gif"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeDOC  = "application/msword"
	mimeXLS  = "application/vnd.ms-excel"
	mimePPT  = "application/vnd.ms-powerpoint"
	mimeText = "text/plain"
	mimeCSV  = "text/csv"
	mimeJSON = "application/json"
)

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// signatures maps a declared MIME type to the byte prefixes it may legally
// start with. Types absent from the map are signature-exempt.
var signatures = map[string][][]byte{
	mimePDF:  {[]byte("%PDF")},
	mimePNG:  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	mimeJPEG: {{0xFF, 0xD8, 0xFF}},
	mimeGIF:  {[]byte("GIF87a"), []byte("GIF89a")},
	mimeDOCX: {zipMagic},
	mimeXLSX: {zipMagic},
	mimePPTX: {zipMagic},
	mimeDOC:  {oleMagic},
	mimeXLS:  {oleMagic},
	mimePPT:  {oleMagic},
}

// zipContainerTypes and oleContainerTypes select the declared types that get
// the container deep scan.
var zipContainerTypes = map[string]bool{
	mimeDOCX: true,
	mimeXLSX: true,
	mimePPTX: true,
}

var oleContainerTypes = map[string]bool{
	mimeDOC: true,
	mimeXLS: true,
	mimePPT: true,
}

// threatPatterns are byte sequences that have no business inside a document
// upload: native executable headers, script shebangs, and archive magics used
// in decompression-bomb attacks. Matched anywhere in the header window, not
// only at offset 0.
var threatPatterns = []struct {
	name  string
	bytes []byte
}{
	{"windows executable", []byte{0x4D, 0x5A}},
	{"elf executable", []byte{0x7F, 0x45, 0x4C, 0x46}},
	{"mach-o executable", []byte{0xCF, 0xFA, 0xED, 0xFE}},
	{"mach-o executable", []byte{0xCE, 0xFA, 0xED, 0xFE}},
	{"script shebang", []byte("#!")},
	{"gzip archive", []byte{0x1F, 0x8B}},
	{"bzip2 archive", []byte("BZh")},
}

// scriptKeywords are matched case-insensitively against the ASCII-decoded
// header window.
var scriptKeywords = []string{
	"<script",
	"javascript:",
	"vbscript:",
	"eval(",
	"onerror=",
	"onload=",
	"document.cookie",
	"document.write",
	"window.location",
}

// executableExtensions is the filename deny list, also applied to inner
// extensions so report.pdf.exe does not slip through.
var executableExtensions = []string{
	".exe", ".dll", ".bat", ".cmd", ".com", ".scr", ".pif",
	".msi", ".jar", ".app", ".deb", ".rpm", ".sh", ".ps1", ".vbs", ".js",
}

// macroKeywords indicate embedded macro machinery inside office containers.
var macroKeywords = []string{
	"vba", "macro", "autoexec", "auto_open", "shell", "wscript", "powershell",
}

const (
	// headerWindow bounds how much of the file the byte-level scans inspect.
	headerWindow = 1024

	// sizeTolerance is the allowed drift between the reported and actual
	// byte counts.
	sizeTolerance = 1024

	maxFilenameLen = 255
)

// detectType re-derives a content type from the header bytes. Best effort,
// telemetry only; an unknown prefix yields the empty string.
func detectType(header []byte) string {
	for mime, prefixes := range signatures {
		for _, prefix := range prefixes {
			if hasPrefix(header, prefix) {
				if mime == mimeDOCX || mime == mimeXLSX || mime == mimePPTX {
					return "application/zip"
				}
				if mime == mimeDOC || mime == mimeXLS || mime == mimePPT {
					return "application/x-ole-storage"
				}
				return mime
			}
		}
	}
	return ""
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i := range prefix {
		if data[i] != prefix[i] {
			return false
		}
	}
	return true
}

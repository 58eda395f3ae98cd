package utils

// Schema version of the JSON output envelope
const SchemaVersion = "1.0"

// Default locations, relative to the working directory
const (
	DefaultImagesDir    = "images"
	DefaultManifestFile = "resources.qrc"
)

// ResourcePrefix is the mount point every manifest entry is published under.
const ResourcePrefix = "/"

// BackupSuffix and BackupTimeLayout name backup artifacts:
// <manifest>.backup_YYYYMMDD_HHMMSS
const (
	BackupSuffix     = ".backup_"
	BackupTimeLayout = "20060102_150405"
)

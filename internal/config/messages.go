package config

// User-facing messages. Students using the pages read German.
const (
	MsgNoDrafts           = "Keine gespeicherten Antworten gefunden."
	MsgEmptySelection     = "Bitte wählen Sie mindestens eine Antwort zum Löschen aus."
	MsgConfirmBulkFmt     = "Sind Sie sicher, dass Sie %d ausgewählte Antwort(en) löschen möchten?"
	MsgBulkDeletedFmt     = "%d Antwort(en) wurden gelöscht."
	MsgConfirmDeleteFmt   = "Sind Sie sicher, dass Sie die Antwort für %q löschen möchten?"
	MsgConfirmReset       = "Sind Sie sicher, dass Sie alle gespeicherten Antworten löschen möchten?"
	MsgResetDone          = "Alle gespeicherten Antworten wurden gelöscht."
	MsgNothingToPrintAll  = "Keine gespeicherten Antworten zum Drucken oder Speichern als PDF vorhanden."
	MsgNothingToPrint     = "Keine gespeicherte Antwort zum Drucken vorhanden."
	MsgNothingToExport    = "Keine gespeicherte Antwort zum Exportieren vorhanden."
	MsgNothingToExportAll = "Keine gespeicherten Antworten zum Exportieren vorhanden."
	MsgNothingToCopy      = "Keine gespeicherten Antworten zum Kopieren vorhanden."
	MsgEmptyDraft         = "Bitte schreiben Sie zuerst eine Antwort, bevor Sie speichern."
	MsgCopied             = "Text wurde in die Zwischenablage kopiert."
	MsgStorageUnavailable = "Der lokale Speicher ist nicht verfügbar. Ihre Antwort wurde nicht gespeichert."
	MsgListUnavailable    = "Gespeicherte Antworten konnten nicht geladen werden."
	MsgSavedFmt           = "Gespeichert: %s"
)

package fcs

import "github.com/bitrise-io/go-fcs/markup"

// AssetType names the kind of file an asset holds.
type AssetType string

// Asset types.
const (
	AssetTypeEpub            AssetType = "CLD_AT_Epub"
	AssetTypePdf             AssetType = "CLD_AT_WebPdf"
	AssetTypeKindle          AssetType = "CLD_AT_Kindle"
	AssetTypePublisherKindle AssetType = "CLD_AT_PublisherKindle"
	AssetTypeCover           AssetType = "CLD_AT_CoverArtHigh"
	// Temporary protected (ACS) assets expire after 55 days.
	AssetTypeTDrm     AssetType = "CLD_AT_TDrm"
	AssetTypeTDrmEpub AssetType = "CLD_AT_TDrmEpub"
	AssetTypeTDrmPdf  AssetType = "CLD_AT_TDrmPdf"
	// Permanent protected (ACS).
	AssetTypePDrm     AssetType = "CLD_AT_PDrm"
	AssetTypePDrmEpub AssetType = "CLD_AT_PDrmEpub"
	AssetTypePDrmPdf  AssetType = "CLD_AT_PDrmPdf"
	// Social DRM.
	AssetTypeEDrmEpub AssetType = "CLD_AT_EDrmEpub"
	AssetTypeEDrmPdf  AssetType = "CLD_AT_EDrmPdf"
	// LCP protected.
	AssetTypeLcpDrmEpub AssetType = "CLD_AT_LcpDrmEpub"
	AssetTypeLcpDrmPdf  AssetType = "CLD_AT_LcpDrmPdf"
	// Audio.
	AssetTypeMp3Full        AssetType = "CLD_AT_AudioMP3"
	AssetTypeMp3Excerpt     AssetType = "CLD_AT_Sample_MP3"
	AssetTypeFullAudio      AssetType = "CLD_AT_W3CFullAudioZip"
	AssetTypeIndexedAudio   AssetType = "CLD_AT_ZipMP3WithManifest"
	AssetTypeStreamingAudio AssetType = "CLD_AT_StrmblAudioBook"
)

// AssetStatus is the "status-tag" of an asset.
type AssetStatus string

// Asset statuses.
const (
	AssetStatusPending  AssetStatus = "CLD_AS_Pending"
	AssetStatusUploaded AssetStatus = "CLD_AS_Uploaded"
	AssetStatusApproved AssetStatus = "CLD_AS_Approved"
	AssetStatusRejected AssetStatus = "CLD_AS_Rejected"
	AssetStatusDeleted  AssetStatus = "CLD_AS_Deleted"
	AssetStatusArchived AssetStatus = "CLD_AS_Archived"
	AssetStatusOnHold   AssetStatus = "CLD_AS_OnHold"
)

// ConversionStatus is the "status-tag" of a conversion.
type ConversionStatus string

// Conversion statuses.
const (
	ConversionStatusRequested  ConversionStatus = "CLD_CS_Requested"
	ConversionStatusAccepted   ConversionStatus = "CLD_CS_Accepted"
	ConversionStatusCompleted  ConversionStatus = "CLD_CS_Completed"
	ConversionStatusApproved   ConversionStatus = "CLD_CS_Approved"
	ConversionStatusRejected   ConversionStatus = "CLD_CS_Rejected"
	ConversionStatusCanceled   ConversionStatus = "CLD_CS_Canceled"
	ConversionStatusFailed     ConversionStatus = "CLD_CS_Failed"
	ConversionStatusError      ConversionStatus = "CLD_CS_Error"
	ConversionStatusConverting ConversionStatus = "CLD_CS_Converting"
	ConversionStatusQueued     ConversionStatus = "CLD_CS_Queued"
	ConversionStatusRetry      ConversionStatus = "CLD_CS_Retry"
)

// ConversionIsApproved ...
func ConversionIsApproved(conversion markup.Value) bool {
	return ConversionStatus(conversion.String("status-tag")) == ConversionStatusApproved
}

// ConversionHasError reports whether the conversion ended with an error or a failure.
func ConversionHasError(conversion markup.Value) bool {
	switch ConversionStatus(conversion.String("status-tag")) {
	case ConversionStatusError, ConversionStatusFailed:
		return true
	default:
		return false
	}
}

// AssetIsAvailable reports whether the asset file is uploaded or approved.
func AssetIsAvailable(asset markup.Value) bool {
	switch AssetStatus(asset.String("status-tag")) {
	case AssetStatusUploaded, AssetStatusApproved:
		return true
	default:
		return false
	}
}

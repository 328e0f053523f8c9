package messaging

import "github.com/goliatone/go-jsonform/pkg/form"

// Message types.
const (
	MessageInfo      = 1
	MessageError     = 11
	MessageSuccess   = 111
	MessageDirect    = 2
	MessageBroadcast = 3
	MessageChannel   = 4
)

// Channel types.
const (
	ChannelSystemBroadcast = 10
	ChannelUserBroadcast   = 11
	ChannelDirect          = 15
	ChannelChat            = 20
)

// Message statuses.
const (
	StatusCreated     = 1
	StatusTransmitted = 11
	StatusSeen        = 22
	StatusRead        = 33
	StatusArchived    = 44
)

// Attachment types.
const (
	AttachmentDocument    = 1
	AttachmentSpreadsheet = 11
	AttachmentImage       = 22
	AttachmentPDF         = 33
)

// MessageTypes lists the message type choices.
var MessageTypes = []form.Choice{
	{Value: MessageInfo, Label: "Info"},
	{Value: MessageError, Label: "Error"},
	{Value: MessageSuccess, Label: "Success"},
	{Value: MessageDirect, Label: "Direct Message"},
	{Value: MessageBroadcast, Label: "Broadcast Message"},
	{Value: MessageChannel, Label: "Channel Message"},
}

// ChannelTypes lists the channel type choices.
var ChannelTypes = []form.Choice{
	{Value: ChannelSystemBroadcast, Label: "System Broadcast"},
	{Value: ChannelUserBroadcast, Label: "User Broadcast"},
	{Value: ChannelDirect, Label: "Direct"},
	{Value: ChannelChat, Label: "Chat"},
}

// MessageStatuses lists the delivery status choices.
var MessageStatuses = []form.Choice{
	{Value: StatusCreated, Label: "Created"},
	{Value: StatusTransmitted, Label: "Transmitted"},
	{Value: StatusSeen, Label: "Seen"},
	{Value: StatusRead, Label: "Read"},
	{Value: StatusArchived, Label: "Archived"},
}

// AttachmentTypes lists the attachment type choices.
var AttachmentTypes = []form.Choice{
	{Value: AttachmentDocument, Label: "Document"},
	{Value: AttachmentSpreadsheet, Label: "Spreadsheet"},
	{Value: AttachmentImage, Label: "Image"},
	{Value: AttachmentPDF, Label: "PDF"},
}

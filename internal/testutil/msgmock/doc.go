package msgmock

//go:generate go tool mockgen -destination=body_extractor.go -package=msgmock github.com/ghettovoice/textmsg/msg BodyExtractor

// Package payloadapi implements contentstore.Store against the Payload CMS
// REST API.
//
// Requests authenticate with a collection API key when one is configured,
// otherwise with the JWT obtained while ensuring the bootstrap user. Media
// is uploaded as multipart form data with the document fields carried in
// the _payload part. Relationship ids are sent back to Payload in the same
// JSON type (number or string) they were issued in.
package payloadapi

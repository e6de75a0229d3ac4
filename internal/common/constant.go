package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on outbound API requests.
const AccessTokenHeaderName = "Authorization"

// DeviceIDHeaderName identifies the submitting device on every API call so
// the backend can deduplicate resubmissions of the same local record.
const DeviceIDHeaderName = "X-Device-Id"

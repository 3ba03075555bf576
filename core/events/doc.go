// Package events defines the typed call lifecycle event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - call.*
//   - user_input.*
//   - assistant_response.*
//   - tool_call.*
//   - turn_state.*
//
// Every event carries the id of the call it belongs to.
//
// call events
//
//   - CallStarted (call.started): the media stream started and the stream id
//     is known.
//   - CallGreetingSent (call.greeting_sent): the opening utterance was sent.
//   - CallEnded (call.ended): the session was torn down; includes the reason
//     and the number of user turns handled.
//
// user_input events
//
//   - UserAudioDiscarded (user_input.audio_discarded): buffered audio was
//     dropped for being too short to transcribe.
//   - UserTranscriptFinal (user_input.transcript_final): terminal transcript
//     of one buffered utterance.
//
// assistant_response events
//
//   - AssistantResponseFinalized (assistant_response.finalized): the reply
//     text that was synthesized and sent.
//
// tool_call events
//
//   - ToolCallCompleted (tool_call.completed): tool execution completed.
//   - ToolCallFailed (tool_call.failed): tool execution failed; the error was
//     reported back to the model.
//
// turn_state events
//
//   - TurnCompleted (turn_state.completed): the turn produced a reply.
//   - TurnFailed (turn_state.failed): the turn fell back to the apology reply.
package events
